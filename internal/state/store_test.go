package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type failingBackend struct {
	*MemoryBackend
	failSave bool
}

func (f *failingBackend) Save(ctx context.Context, dev *Device) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(ctx, dev)
}

func TestStore_InitialisesAndPersistsDefaults(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)

	dev, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if dev.ID() != "EZR010A49" {
		t.Errorf("ID = %q", dev.ID())
	}
	if backend.Document() == nil {
		t.Fatal("defaults were not persisted on first access")
	}
}

func TestStore_LoadsExistingDocument(t *testing.T) {
	backend := NewMemoryBackend()
	seed := Default(time.Now())
	seed.HeatArea(1).Fields.Set(FieldHeatAreaName, String("Office"))
	if err := backend.Save(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	dev, err := NewStore(backend).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	name, _ := dev.HeatArea(1).Get(FieldHeatAreaName)
	if name.String() != "Office" {
		t.Errorf("name = %q, want Office", name)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	dev, _ := store.Snapshot(ctx)
	dev.HeatArea(1).Fields.Set(FieldTTarget, Float(5))

	again, _ := store.Snapshot(ctx)
	v, _ := again.HeatArea(1).Get(FieldTTarget)
	if v.String() != "28.0" {
		t.Errorf("snapshot mutation leaked into store: %s", v)
	}
}

func TestStore_UpdateErrorLeavesStateUnchanged(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := store.Update(ctx, func(d *Device) error {
		d.HeatArea(1).Fields.Set(FieldTTarget, Float(5))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	dev, _ := store.Snapshot(ctx)
	v, _ := dev.HeatArea(1).Get(FieldTTarget)
	if v.String() != "28.0" {
		t.Errorf("T_TARGET = %s after failed update", v)
	}
}

func TestStore_SaveFailureLeavesStateUnchanged(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend()}
	store := NewStore(backend)
	ctx := context.Background()

	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	backend.failSave = true

	_, err := store.Update(ctx, func(d *Device) error {
		d.HeatArea(1).Fields.Set(FieldTTarget, Float(5))
		return nil
	})
	if err == nil {
		t.Fatal("expected save error")
	}

	dev, _ := store.Snapshot(ctx)
	v, _ := dev.HeatArea(1).Get(FieldTTarget)
	if v.String() != "28.0" {
		t.Errorf("T_TARGET = %s after failed save", v)
	}
}

func TestStore_RefreshClock(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	fixed := time.Date(2026, 10, 19, 8, 15, 42, 0, time.UTC) // Monday
	store.SetClock(func() time.Time { return fixed })

	dev, err := store.RefreshClock(context.Background())
	if err != nil {
		t.Fatalf("RefreshClock: %v", err)
	}
	dt, _ := dev.Attrs.Get(FieldDateTime)
	if dt.String() != "2026-10-19T08:15:42" {
		t.Errorf("DATETIME = %q", dt)
	}
	dow, _ := dev.Attrs.Get(FieldDayOfWeek)
	if dow.String() != "1" {
		t.Errorf("DAYOFWEEK = %q, want 1", dow)
	}
}

func TestStore_OnCommit(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	var got []string
	store.OnCommit(func(_ context.Context, dev *Device) {
		v, _ := dev.HeatArea(2).Get(FieldTTarget)
		got = append(got, v.String())
	})

	_, err := store.Update(context.Background(), func(d *Device) error {
		d.HeatArea(2).Fields.Set(FieldTTarget, Float(18.5))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "18.5" {
		t.Errorf("observer saw %v, want [18.5]", got)
	}
}

func TestStore_ObserversSeeCommitOrder(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []string
	store.OnCommit(func(_ context.Context, dev *Device) {
		v, _ := dev.HeatArea(1).Get(FieldTTarget)
		if v.String() == "20.0" {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, v.String())
		mu.Unlock()
	})

	setTarget := func(target float64) func(*Device) error {
		return func(d *Device) error {
			d.HeatArea(1).Fields.Set(FieldTTarget, Float(target))
			return nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := store.Update(ctx, setTarget(20)); err != nil {
			t.Error(err)
		}
	}()
	<-entered

	go func() {
		defer wg.Done()
		if _, err := store.Update(ctx, setTarget(21)); err != nil {
			t.Error(err)
		}
	}()

	// The second commit must land while the first observer is still busy.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if v, _ := snap.HeatArea(1).Get(FieldTTarget); v.String() == "21.0" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("second commit did not complete while the first observer was blocked")
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "20.0" || seen[1] != "21.0" {
		t.Fatalf("observer sequence = %v, want [20.0 21.0]", seen)
	}
	snap, _ := store.Snapshot(ctx)
	if v, _ := snap.HeatArea(1).Get(FieldTTarget); v.String() != seen[len(seen)-1] {
		t.Errorf("last observed %s, committed %s", seen[len(seen)-1], v)
	}
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, func(d *Device) error {
				v, _ := d.Attrs.Get("ERRORCOUNT")
				n, _ := v.AsInt()
				time.Sleep(time.Millisecond)
				d.Attrs.Set("ERRORCOUNT", Int(n+1))
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	dev, _ := store.Snapshot(ctx)
	v, _ := dev.Attrs.Get("ERRORCOUNT")
	if v.String() != "50" {
		t.Errorf("ERRORCOUNT = %s, want 50", v)
	}
}

func TestStore_ConcurrentTargetWritesLastCommitWins(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)
	ctx := context.Background()

	var (
		orderMu sync.Mutex
		last    float64
	)
	targets := []float64{17.5, 23.0}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target float64) {
			defer wg.Done()
			_, err := store.Update(ctx, func(d *Device) error {
				area := d.HeatArea(1)
				area.Fields.Set(FieldTTarget, Float(target))
				time.Sleep(5 * time.Millisecond)
				area.Fields.Set("T_TARGET_BASE", Float(target))
				orderMu.Lock()
				last = target
				orderMu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}(target)
	}
	wg.Wait()

	dev, _ := store.Snapshot(ctx)
	got, _ := dev.HeatArea(1).Get(FieldTTarget)
	base, _ := dev.HeatArea(1).Get("T_TARGET_BASE")
	want := FormatFloat(last)
	if got.String() != want || base.String() != want {
		t.Errorf("T_TARGET=%s T_TARGET_BASE=%s, want both %s", got, base, want)
	}

	persisted, err := backend.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := persisted.HeatArea(1).Get(FieldTTarget)
	if p.String() != want {
		t.Errorf("persisted T_TARGET = %s, want %s", p, want)
	}
}

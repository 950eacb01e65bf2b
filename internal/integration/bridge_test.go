package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/api"
	"github.com/nerrad567/alpha2-bridge/internal/client"
	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/homeassistant"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

func writeOptions(t *testing.T, path string, opts Options, mtime time.Time) {
	t.Helper()
	data, err := json.Marshal(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func mockController(t *testing.T) (*httptest.Server, *state.Store) {
	t.Helper()
	store := state.NewStore(state.NewMemoryBackend())
	srv, err := api.New(api.Deps{
		Logger:    logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "alpha2-test", "test"),
		Store:     store,
		Processor: command.NewProcessor(store),
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

// fakeHA answers /api/states/{id} from a table of state objects.
func fakeHA(t *testing.T, states map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := states[strings.TrimPrefix(r.URL.Path, "/api/states/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

type syncRecord struct {
	area  int
	value float64
	ok    bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []syncRecord
}

func (f *fakeRecorder) WriteSync(areaID int, _ string, value float64, ok bool, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, syncRecord{areaID, value, ok})
}

func virtualDevices(dev *state.Device) map[int64]int64 {
	out := make(map[int64]int64)
	for _, d := range dev.IODevices {
		if typ, _ := d.Int(state.FieldIODeviceType); typ == state.IODeviceTypeVirtual {
			id, _ := d.Int(state.FieldIODeviceID)
			area, _ := d.Int(state.FieldHeatAreaNr)
			out[id] = area
		}
	}
	return out
}

func TestCycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	ctrl, store := mockController(t)
	ha := fakeHA(t, map[string]string{
		"sensor.kitchen": `{"entity_id":"sensor.kitchen","state":"21.4","attributes":{}}`,
		"sensor.bath":    `{"entity_id":"sensor.bath","state":"unavailable","attributes":{}}`,
	})

	path := filepath.Join(t.TempDir(), "options.json")
	writeOptions(t, path, Options{
		Alpha2Host: ctrl.URL,
		VirtualDevices: []VirtualDevice{
			{Name: "Kitchen", AreaID: 1, TemperatureEntityID: "sensor.kitchen"},
			{Name: "Bath", AreaID: 2, TemperatureEntityID: "sensor.bath"},
		},
	}, time.Now().Add(-time.Hour))

	var dials []string
	b := New(path, Options{}, func(host string) Controller {
		dials = append(dials, host)
		return client.New(host)
	}, homeassistant.New(ha.URL, "token", time.Second))
	rec := &fakeRecorder{}
	b.SetRecorder(rec)

	if err := b.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	dev, _ := store.Snapshot(ctx)
	virt := virtualDevices(dev)
	if len(virt) != 2 || virt[3] != 1 || virt[4] != 2 {
		t.Errorf("virtual devices = %v, want 3->1 and 4->2", virt)
	}
	actual, _ := dev.HeatArea(1).Get(state.FieldTActual)
	if f, _ := actual.AsFloat(); f != 21.4 {
		t.Errorf("kitchen T_ACTUAL = %v, want 21.4", actual)
	}
	if len(rec.records) != 1 || rec.records[0] != (syncRecord{1, 21.4, true}) {
		t.Errorf("sync records = %+v", rec.records)
	}
	if b.Options().UpdateInterval != DefaultUpdateInterval {
		t.Errorf("update interval = %d", b.Options().UpdateInterval)
	}

	// Unchanged options: no setup, no duplicates.
	if err := b.Cycle(ctx); err != nil {
		t.Fatalf("second Cycle: %v", err)
	}
	dev, _ = store.Snapshot(ctx)
	if n := len(virtualDevices(dev)); n != 2 {
		t.Errorf("virtual devices after second cycle = %d, want 2", n)
	}

	// A newer file is reloaded; existing devices are still skipped.
	writeOptions(t, path, Options{
		Alpha2Host:     ctrl.URL,
		UpdateInterval: 5,
		VirtualDevices: []VirtualDevice{{Name: "Kitchen", AreaID: 1, TemperatureEntityID: "sensor.kitchen"}},
	}, time.Now())
	if err := b.Cycle(ctx); err != nil {
		t.Fatalf("third Cycle: %v", err)
	}
	if b.Options().UpdateInterval != 5 {
		t.Errorf("reloaded interval = %d, want 5", b.Options().UpdateInterval)
	}
	dev, _ = store.Snapshot(ctx)
	if n := len(virtualDevices(dev)); n != 2 {
		t.Errorf("virtual devices after reload = %d, want 2", n)
	}
	if len(dials) != 1 {
		t.Errorf("dials = %v, want one", dials)
	}
}

// fakeController records calls and can fail the device listing.
type fakeController struct {
	mu       sync.Mutex
	devices  map[int]map[string]string
	listErr  error
	created  []int
	updates  map[int]float64
	updateOK bool
}

func (f *fakeController) ListIODevices(context.Context) (map[int]map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeController) CreateVirtualDevice(_ context.Context, areaID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, areaID)
	return true
}

func (f *fakeController) UpdateActualTemperature(_ context.Context, areaID int, value float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[int]float64)
	}
	f.updates[areaID] = value
	return f.updateOK
}

type fakeSource map[string]any

func (f fakeSource) Temperature(_ context.Context, entityID string) (float64, error) {
	switch v := f[entityID].(type) {
	case float64:
		return v, nil
	case error:
		return 0, v
	}
	return 0, homeassistant.ErrNotNumeric
}

func TestSetupVirtualDevices_SkipsCoveredAreas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	writeOptions(t, path, Options{VirtualDevices: []VirtualDevice{
		{Name: "Kitchen", AreaID: 1, TemperatureEntityID: "sensor.a"},
		{Name: "Bath", AreaID: 2, TemperatureEntityID: "sensor.b"},
		{Name: "Bath again", AreaID: 2, TemperatureEntityID: "sensor.c"},
	}}, time.Now())

	fc := &fakeController{devices: map[int]map[string]string{
		1: {"IODEVICE_TYPE": "0", "HEATAREA_NR": "2"},
		3: {"IODEVICE_TYPE": "8", "HEATAREA_NR": "1"},
	}}
	b := New(path, Options{}, func(string) Controller { return fc }, fakeSource{})
	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(fc.created) != 1 || fc.created[0] != 2 {
		t.Errorf("created = %v, want only area 2", fc.created)
	}
}

func TestCycle_ListFailureRetriesSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	writeOptions(t, path, Options{VirtualDevices: []VirtualDevice{
		{Name: "Kitchen", AreaID: 1, TemperatureEntityID: "sensor.a"},
	}}, time.Now())

	fc := &fakeController{listErr: errors.New("connection refused")}
	b := New(path, Options{}, func(string) Controller { return fc }, fakeSource{"sensor.a": 20.0})

	if err := b.Cycle(context.Background()); err == nil {
		t.Fatal("Cycle() error = nil, want the listing failure")
	}
	if len(fc.updates) != 0 {
		t.Errorf("updates sent after failed setup: %v", fc.updates)
	}

	fc.mu.Lock()
	fc.listErr = nil
	fc.mu.Unlock()
	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("retry Cycle: %v", err)
	}
	if len(fc.created) != 1 {
		t.Errorf("created = %v, want setup retried", fc.created)
	}
}

func TestSyncTemperatures_SkipsUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	writeOptions(t, path, Options{VirtualDevices: []VirtualDevice{
		{AreaID: 1, TemperatureEntityID: "sensor.ok"},
		{AreaID: 2, TemperatureEntityID: "sensor.off"},
		{AreaID: 3, TemperatureEntityID: "sensor.text"},
		{AreaID: 4, TemperatureEntityID: "sensor.down"},
	}}, time.Now())

	fc := &fakeController{devices: map[int]map[string]string{}, updateOK: false}
	src := fakeSource{
		"sensor.ok":   19.5,
		"sensor.off":  homeassistant.ErrUnavailable,
		"sensor.down": &homeassistant.RequestError{EntityID: "sensor.down", StatusCode: 500},
	}
	rec := &fakeRecorder{}
	b := New(path, Options{}, func(string) Controller { return fc }, src)
	b.SetRecorder(rec)

	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(fc.updates) != 1 || fc.updates[1] != 19.5 {
		t.Errorf("updates = %v, want only area 1", fc.updates)
	}
	if len(rec.records) != 1 || rec.records[0].ok {
		t.Errorf("records = %+v, want one failed push", rec.records)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Setenv("UPDATE_INTERVAL", "1")
	t.Setenv("VIRTUAL_DEVICES", "")
	fc := &fakeController{devices: map[int]map[string]string{}}
	b := New(filepath.Join(t.TempDir(), "missing.json"), Options{}, func(string) Controller { return fc }, fakeSource{})
	b.SetRetryDelay(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if b.Options() == nil || b.Options().UpdateInterval != 1 {
		t.Errorf("options = %+v", b.Options())
	}
}

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Backend persists a single device document.
type Backend interface {
	// Load returns the stored device, or ErrNotFound when nothing is stored.
	Load(ctx context.Context) (*Device, error)

	// Save replaces the stored device.
	Save(ctx context.Context, dev *Device) error
}

// CommitFunc observes a committed snapshot. The device passed is a private
// copy owned by the observer. Observers run in commit order and must not
// call back into the store's write path.
type CommitFunc func(ctx context.Context, dev *Device)

// Store owns the device state and serialises every load-mutate-save
// sequence behind one mutex, so at most one writer touches the backend at
// a time.
//
// The backend is read once; afterwards the store serves reads from memory
// and is the only writer of the backend.
type Store struct {
	backend Backend
	logger  Logger
	now     func() time.Time

	mu  sync.Mutex // Guards dev and every backend write
	dev *Device

	// notifyMu is taken before mu is released on commit, so observers see
	// commits in the order they were made.
	notifyMu  sync.Mutex
	obsMu     sync.RWMutex
	observers []CommitFunc
}

// NewStore creates a store on top of backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetClock replaces the time source used for defaults and clock refreshes.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// OnCommit registers an observer called after every successful commit.
func (s *Store) OnCommit(fn CommitFunc) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Load makes sure the state is resident, initialising and persisting the
// default snapshot when the backend is empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.loadLocked(ctx)
	return err
}

// loadLocked returns the resident device. Caller must hold s.mu.
func (s *Store) loadLocked(ctx context.Context) (*Device, error) {
	if s.dev != nil {
		return s.dev, nil
	}

	dev, err := s.backend.Load(ctx)
	switch {
	case err == nil:
		s.logger.Debug("device state loaded", "id", dev.ID())
	case errors.Is(err, ErrNotFound):
		dev = Default(s.now())
		if saveErr := s.backend.Save(ctx, dev); saveErr != nil {
			return nil, fmt.Errorf("persisting default state: %w", saveErr)
		}
		s.logger.Info("initialised default device state", "id", dev.ID())
	default:
		return nil, fmt.Errorf("loading device state: %w", err)
	}

	s.dev = dev
	return s.dev, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot(ctx context.Context) (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return dev.DeepCopy(), nil
}

// Update runs fn against a copy of the state, persists the result and makes
// it current. If fn or the save fails, the current state is unchanged.
//
// Parameters:
//   - ctx: Context for the backend write
//   - fn: Mutation applied to a private copy of the device
//
// Returns:
//   - *Device: Copy of the committed state
//   - error: fn's error, or a wrapped backend error
func (s *Store) Update(ctx context.Context, fn func(dev *Device) error) (*Device, error) {
	committed, err := s.update(ctx, fn)
	if err != nil {
		return nil, err
	}
	defer s.notifyMu.Unlock()
	s.notify(ctx, committed)
	return committed, nil
}

// update commits fn's result. On success it returns holding notifyMu, which
// the caller releases once observers have run.
func (s *Store) update(ctx context.Context, fn func(dev *Device) error) (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	next := current.DeepCopy()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.backend.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("saving device state: %w", err)
	}

	s.dev = next
	s.notifyMu.Lock()
	return next.DeepCopy(), nil
}

// RefreshClock sets DATETIME and DAYOFWEEK to the current instant and
// commits the change. Cyclic polling goes through here, so it takes part in
// the same serialisation as command writes.
func (s *Store) RefreshClock(ctx context.Context) (*Device, error) {
	return s.Update(ctx, func(dev *Device) error {
		dev.SetClock(s.now())
		return nil
	})
}

func (s *Store) notify(ctx context.Context, dev *Device) {
	s.obsMu.RLock()
	observers := make([]CommitFunc, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(ctx, dev.DeepCopy())
	}
}

// MemoryBackend keeps the document in process memory only.
type MemoryBackend struct {
	mu  sync.Mutex
	doc []byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load decodes the last saved document.
func (m *MemoryBackend) Load(_ context.Context) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.doc == nil {
		return nil, ErrNotFound
	}
	dev := &Device{}
	if err := dev.UnmarshalJSON(m.doc); err != nil {
		return nil, err
	}
	return dev, nil
}

// Save encodes and keeps dev.
func (m *MemoryBackend) Save(_ context.Context, dev *Device) error {
	doc, err := dev.MarshalJSON()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
	return nil
}

// Document returns the raw stored document, or nil.
func (m *MemoryBackend) Document() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

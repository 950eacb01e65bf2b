package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/homeassistant"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// DefaultRetryDelay is the pause after a failed cycle.
const DefaultRetryDelay = 10 * time.Second

// Controller is the part of the protocol client the bridge drives.
type Controller interface {
	ListIODevices(ctx context.Context) (map[int]map[string]string, error)
	CreateVirtualDevice(ctx context.Context, areaID int) bool
	UpdateActualTemperature(ctx context.Context, areaID int, value float64) bool
}

// Dialer returns a Controller for an alpha2_host value. It is called
// again whenever the host changes.
type Dialer func(host string) Controller

// TemperatureSource reads a temperature entity.
type TemperatureSource interface {
	Temperature(ctx context.Context, entityID string) (float64, error)
}

// SyncRecorder stores the outcome of each pushed reading.
type SyncRecorder interface {
	WriteSync(areaID int, entityID string, value float64, ok bool, at time.Time)
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bridge pushes Home Assistant temperatures into Alpha 2 heat areas
// through virtual devices.
//
// Each cycle reloads the options when the file changed (creating missing
// virtual devices), then sends one T_ACTUAL per configured device.
type Bridge struct {
	optionsPath string
	fallback    Options
	dial        Dialer
	source      TemperatureSource
	recorder    SyncRecorder
	logger      Logger
	retryDelay  time.Duration
	now         func() time.Time

	mu         sync.Mutex
	opts       *Options
	loadedAt   time.Time // options file mtime; zero until loaded from a file
	controller Controller
	host       string
}

// New creates a bridge.
//
// Parameters:
//   - optionsPath: Options file, re-read when its modification time changes
//   - fallback: Values used when the options leave a field unset
//   - dial: Builds the controller client for alpha2_host
//   - source: Home Assistant state reader
func New(optionsPath string, fallback Options, dial Dialer, source TemperatureSource) *Bridge {
	return &Bridge{
		optionsPath: optionsPath,
		fallback:    fallback,
		dial:        dial,
		source:      source,
		logger:      noopLogger{},
		retryDelay:  DefaultRetryDelay,
		now:         time.Now,
	}
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// SetRecorder sets where sync outcomes are written.
func (b *Bridge) SetRecorder(r SyncRecorder) {
	b.recorder = r
}

// SetRetryDelay sets the pause after a failed cycle.
func (b *Bridge) SetRetryDelay(d time.Duration) {
	if d > 0 {
		b.retryDelay = d
	}
}

// Options returns the options in effect, nil before the first cycle.
func (b *Bridge) Options() *Options {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts
}

// Run cycles until ctx is cancelled. A failed cycle is logged and retried
// after the retry delay.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("bridge started", "options", b.optionsPath)
	for {
		wait := b.retryDelay
		if err := b.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				b.logger.Info("bridge stopped")
				return nil
			}
			b.logger.Error("bridge cycle failed", "error", err, "retry_in", wait.String())
		} else {
			wait = b.Options().Interval()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			b.logger.Info("bridge stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Cycle runs one reload-and-sync pass.
func (b *Bridge) Cycle(ctx context.Context) error {
	if err := b.reload(ctx); err != nil {
		return err
	}
	b.SyncTemperatures(ctx)
	return nil
}

// reload loads the options on the first cycle and whenever the file's
// modification time changes, then creates missing virtual devices. A
// failed setup leaves the old mtime so the next cycle tries again.
func (b *Bridge) reload(ctx context.Context) error {
	b.mu.Lock()
	loaded := b.opts != nil
	last := b.loadedAt
	b.mu.Unlock()

	if loaded {
		mtime, err := modTime(b.optionsPath)
		if err != nil {
			return fmt.Errorf("checking options: %w", err)
		}
		if mtime.IsZero() || !mtime.After(last) {
			return nil
		}
		b.logger.Info("options changed, reloading", "path", b.optionsPath)
	}

	opts, mtime, err := LoadOptions(b.optionsPath, b.fallback)
	if err != nil {
		return err
	}
	source := "file"
	if mtime.IsZero() {
		source = "environment"
	}
	b.logger.Info("options loaded",
		"source", source,
		"alpha2_host", opts.Alpha2Host,
		"update_interval", opts.UpdateInterval,
		"virtual_devices", len(opts.VirtualDevices),
	)

	b.mu.Lock()
	b.opts = opts
	if b.controller == nil || b.host != opts.Alpha2Host {
		b.controller = b.dial(opts.Alpha2Host)
		b.host = opts.Alpha2Host
	}
	b.mu.Unlock()

	if err := b.SetupVirtualDevices(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.loadedAt = mtime
	b.mu.Unlock()
	return nil
}

func (b *Bridge) current() (*Options, Controller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts, b.controller
}

// SetupVirtualDevices creates a virtual device for every configured heat
// area that has none yet.
//
// Returns:
//   - error: If the device list cannot be read; a failed create is only logged
func (b *Bridge) SetupVirtualDevices(ctx context.Context) error {
	opts, ctrl := b.current()
	if opts == nil || len(opts.VirtualDevices) == 0 {
		return nil
	}

	devices, err := ctrl.ListIODevices(ctx)
	if err != nil {
		return fmt.Errorf("listing io devices: %w", err)
	}
	covered := make(map[string]bool)
	for _, d := range devices {
		if d[state.FieldIODeviceType] == strconv.Itoa(state.IODeviceTypeVirtual) {
			covered[d[state.FieldHeatAreaNr]] = true
		}
	}

	for _, vd := range opts.VirtualDevices {
		area := strconv.Itoa(vd.AreaID)
		if covered[area] {
			b.logger.Info("virtual device already present", "name", vd.Name, "area", vd.AreaID)
			continue
		}
		if !ctrl.CreateVirtualDevice(ctx, vd.AreaID) {
			b.logger.Error("virtual device not created", "name", vd.Name, "area", vd.AreaID)
			continue
		}
		covered[area] = true
		b.logger.Info("virtual device created", "name", vd.Name, "area", vd.AreaID)
	}
	return nil
}

// SyncTemperatures pushes the current reading of every configured entity
// to its heat area. Unavailable or unreadable entities are skipped.
func (b *Bridge) SyncTemperatures(ctx context.Context) {
	opts, ctrl := b.current()
	if opts == nil {
		return
	}

	for _, vd := range opts.VirtualDevices {
		if ctx.Err() != nil {
			return
		}
		b.logger.Debug("fetching temperature", "entity", vd.TemperatureEntityID)

		temp, err := b.source.Temperature(ctx, vd.TemperatureEntityID)
		switch {
		case errors.Is(err, homeassistant.ErrUnavailable):
			b.logger.Warn("sensor has no reading", "entity", vd.TemperatureEntityID, "error", err)
			continue
		case err != nil:
			b.logger.Error("reading temperature failed", "entity", vd.TemperatureEntityID, "error", err)
			continue
		}

		b.logger.Info("updating temperature", "name", vd.Name, "area", vd.AreaID, "temperature", temp)
		ok := ctrl.UpdateActualTemperature(ctx, vd.AreaID, temp)
		if b.recorder != nil {
			b.recorder.WriteSync(vd.AreaID, vd.TemperatureEntityID, temp, ok, b.now())
		}
	}
}

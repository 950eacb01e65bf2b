package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
)

// Option defaults, used when neither the options source nor the fallback
// sets a value.
const (
	DefaultAlpha2Host     = "localhost:5000"
	DefaultUpdateInterval = 60
)

// VirtualDevice binds a Home Assistant temperature entity to a heat area.
type VirtualDevice struct {
	Name                string `json:"name"`
	AreaID              int    `json:"area_id"`
	TemperatureEntityID string `json:"temperature_entity_id"`
}

// Options is the add-on configuration.
type Options struct {
	Alpha2Host     string          `json:"alpha2_host"`
	UpdateInterval int             `json:"update_interval"` // seconds
	VirtualDevices []VirtualDevice `json:"virtual_devices"`
}

// Interval returns the sync period.
func (o *Options) Interval() time.Duration {
	return time.Duration(o.UpdateInterval) * time.Second
}

// applyDefaults fills unset values from fallback, then from the package
// defaults.
func (o *Options) applyDefaults(fallback Options) {
	if o.Alpha2Host == "" {
		o.Alpha2Host = fallback.Alpha2Host
	}
	if o.Alpha2Host == "" {
		o.Alpha2Host = DefaultAlpha2Host
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = fallback.UpdateInterval
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = DefaultUpdateInterval
	}
}

// LoadOptions reads the options file at path. When the file does not
// exist the environment is used instead.
//
// Parameters:
//   - path: JSON options file, normally /data/options.json
//   - fallback: Values for fields neither source sets
//
// Returns:
//   - *Options: Loaded options with defaults applied
//   - time.Time: The file's modification time, zero for the environment
//   - error: If the file or the environment holds malformed values
func LoadOptions(path string, fallback Options) (*Options, time.Time, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		opts, err := OptionsFromEnv(fallback)
		return opts, time.Time{}, err
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat options: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading options: %w", err)
	}
	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing options %s: %w", path, err)
	}
	opts.applyDefaults(fallback)
	return &opts, info.ModTime(), nil
}

// OptionsFromEnv builds options from ALPHA2_HOST, UPDATE_INTERVAL and
// VIRTUAL_DEVICES (a JSON array).
func OptionsFromEnv(fallback Options) (*Options, error) {
	opts := &Options{Alpha2Host: os.Getenv("ALPHA2_HOST")}

	if v := os.Getenv("UPDATE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("UPDATE_INTERVAL: %w", err)
		}
		opts.UpdateInterval = n
	}
	if v := os.Getenv("VIRTUAL_DEVICES"); v != "" {
		if err := json.Unmarshal([]byte(v), &opts.VirtualDevices); err != nil {
			return nil, fmt.Errorf("VIRTUAL_DEVICES: %w", err)
		}
	}
	opts.applyDefaults(fallback)
	return opts, nil
}

// modTime returns the options file's modification time, zero when absent.
func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

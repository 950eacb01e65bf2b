package xmlview

import (
	"fmt"
	"strings"
)

// View selects which projection of the device tree is rendered.
type View string

// Views served by the controller.
const (
	// Static is the full tree: every attribute, record and collection.
	Static View = "static"
	// Dynamic carries operating values only, no identity or program data.
	Dynamic View = "dynamic"
	// Cyclic is the narrow set polled most frequently.
	Cyclic View = "cyclic"
)

// ParseView converts a view name ("static", "dynamic.xml", …) to a View.
func ParseView(name string) (View, error) {
	v := View(strings.TrimSuffix(strings.ToLower(name), ".xml"))
	switch v {
	case Static, Dynamic, Cyclic:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

// projection lists the fields a subset view emits.
type projection struct {
	device   []string
	heatArea []string
	ioDevice []string
}

var dynamicHeatAreaFields = []string{
	"HEATAREA_MODE", "T_ACTUAL", "T_ACTUAL_EXT", "T_TARGET",
	"T_TARGET_BASE", "HEATAREA_STATE", "PROGRAM_SOURCE",
	"PROGRAM_WEEK", "PROGRAM_WEEKEND", "PARTY",
	"PARTY_REMAININGTIME", "PRESENCE", "RPM_MOTOR",
	"BLOCK_HC", "ISLOCKED", "LOCK_AVAILABLE", "SENSOR_EXT",
}

var ioDeviceStatusFields = []string{
	"SIGNALSTRENGTH", "BATTERY", "IODEVICE_STATE",
	"IODEVICE_COMERROR", "ISON",
}

var projections = map[View]projection{
	Dynamic: {
		device: []string{
			"ERRORCOUNT", "DATETIME", "DAYOFWEEK", "TIMEZONE", "TPS", "LIMITER",
			"CHANGEOVER", "COOLING", "MODE", "ANTIFREEZE_TEMP", "ECO_INPUT_STATE",
			"T_HEAT_VACATION", "VACATION", "CLOUD", "KWLCTRL",
		},
		heatArea: dynamicHeatAreaFields,
		ioDevice: ioDeviceStatusFields,
	},
	Cyclic: {
		device: []string{
			"DATETIME", "DAYOFWEEK", "TIMEZONE", "TPS", "LIMITER",
			"CHANGEOVER", "COOLING", "ANTIFREEZE_TEMP", "ECO_INPUT_STATE",
			"T_HEAT_VACATION", "VACATION", "CLOUD", "KWLCTRL",
		},
		heatArea: []string{
			"HEATAREA_MODE", "T_ACTUAL", "T_ACTUAL_EXT", "T_TARGET",
			"T_TARGET_BASE", "HEATAREA_STATE", "PROGRAM_SOURCE",
			"PROGRAM_WEEK", "PROGRAM_WEEKEND", "PARTY",
			"PARTY_REMAININGTIME", "PRESENCE", "ISLOCKED",
		},
		ioDevice: ioDeviceStatusFields,
	},
}

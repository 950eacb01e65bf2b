package command

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Logger defines the logging interface used by this package.
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

// Change describes one applied sub-operation, as journalled.
type Change struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Result collects what one Apply call did.
type Result struct {
	// Changes lists sub-operations that modified the state.
	Changes []Change

	// Errors are field-level failures (conversion, validation, grammar).
	// The rest of the batch is still applied.
	Errors []error

	// Ignored are silent no-ops, mostly *ReferenceError.
	Ignored []error
}

// OK reports whether every submitted field was accepted.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Err joins the field errors, or returns nil.
func (r *Result) Err() error { return errors.Join(r.Errors...) }

func (r *Result) fail(err error)   { r.Errors = append(r.Errors, err) }
func (r *Result) ignore(err error) { r.Ignored = append(r.Ignored, err) }

// Applier mutates a device tree according to a parsed Record.
type Applier struct {
	logger Logger
}

// NewApplier creates an applier.
func NewApplier() *Applier {
	return &Applier{logger: noopLogger{}}
}

// SetLogger sets the logger for the applier.
func (a *Applier) SetLogger(logger Logger) {
	a.logger = logger
}

// Apply applies rec to dev in place.
//
// The special COMMAND runs first. Direct updates (DATETIME, COOLING,
// VACATION, RELAIS, HEATAREA) follow only when rec.ID equals the device's
// own ID. Each field is converted and applied on its own; a failure is
// recorded in Result.Errors and the remaining fields still apply.
// References to unknown devices or areas change nothing and are recorded
// in Result.Ignored.
func (a *Applier) Apply(dev *state.Device, rec *Record) *Result {
	res := &Result{}
	for _, p := range rec.Problems {
		res.fail(p)
	}

	if rec.Command != nil {
		a.applyAction(dev, rec, res)
	}

	if rec.HasDirectUpdates() {
		switch {
		case rec.ID == nil:
			res.ignore(&ReferenceError{Op: "update", Kind: "device", Ref: "(no ID)"})
		case *rec.ID != dev.ID():
			res.ignore(&ReferenceError{Op: "update", Kind: "device", Ref: strconv.Quote(*rec.ID)})
		default:
			a.applyDirect(dev, rec, res)
		}
	}

	return res
}

func (a *Applier) applyAction(dev *state.Device, rec *Record, res *Result) {
	switch act := rec.Action.(type) {
	case CreateVirtualDevice:
		if len(act.AreaIDs) == 0 {
			res.fail(&ValidationError{Field: "COMMAND", Reason: "missing heat area"})
			return
		}
		area := act.AreaIDs[0]
		nr := dev.NextIODeviceNr()
		id := dev.NextIODeviceID()
		dev.IODevices = append(dev.IODevices, state.NewVirtualIODevice(nr, id, area))
		if dev.HeatArea(int(area)) == nil {
			res.ignore(&ReferenceError{Op: act.String(), Kind: "heat area", Ref: strconv.FormatInt(area, 10)})
		}
		res.Changes = append(res.Changes, Change{
			Action:     act.Name(),
			EntityType: "iodevice",
			EntityID:   strconv.FormatInt(id, 10),
			Details:    map[string]any{"nr": nr, "heatarea_nr": area},
		})
		a.logger.Info("created virtual device", "iodevice_id", id, "nr", nr, "heatarea_nr", area)

	case ConnectVirtualDevice:
		e := dev.IODeviceByID(act.DeviceID)
		if e == nil {
			res.ignore(&ReferenceError{Op: act.String(), Kind: "io device", Ref: strconv.FormatInt(act.DeviceID, 10)})
			return
		}
		if len(act.AreaIDs) == 0 {
			res.fail(&ValidationError{Field: "COMMAND", Reason: "missing heat area"})
			return
		}
		area := act.AreaIDs[0]
		e.Fields.Set(state.FieldHeatAreaNr, state.Int(area))
		if dev.HeatArea(int(area)) == nil {
			res.ignore(&ReferenceError{Op: act.String(), Kind: "heat area", Ref: strconv.FormatInt(area, 10)})
		}
		res.Changes = append(res.Changes, Change{
			Action:     act.Name(),
			EntityType: "iodevice",
			EntityID:   strconv.FormatInt(act.DeviceID, 10),
			Details:    map[string]any{"heatarea_nr": area, "heatareas": act.AreaIDs},
		})
		a.logger.Info("connected virtual device", "iodevice_id", act.DeviceID, "heatareas", act.AreaIDs)

	case DeleteVirtualDevice:
		removed := dev.RemoveIODevices(act.DeviceID)
		if removed == 0 {
			res.ignore(&ReferenceError{Op: act.String(), Kind: "io device", Ref: strconv.FormatInt(act.DeviceID, 10)})
			return
		}
		res.Changes = append(res.Changes, Change{
			Action:     act.Name(),
			EntityType: "iodevice",
			EntityID:   strconv.FormatInt(act.DeviceID, 10),
			Details:    map[string]any{"removed": removed},
		})
		a.logger.Info("deleted virtual device", "iodevice_id", act.DeviceID, "removed", removed)

	case nil:
		// Malformed commands are already in Problems; anything else is an
		// unknown verb and ignored like the controller does.
		if len(rec.Problems) == 0 {
			res.ignore(&ReferenceError{Op: "COMMAND", Kind: "command", Ref: strconv.Quote(*rec.Command)})
		}
	}
}

func (a *Applier) applyDirect(dev *state.Device, rec *Record, res *Result) {
	updated := map[string]any{}

	if rec.DateTime != nil {
		dev.Attrs.Set(state.FieldDateTime, state.String(*rec.DateTime))
		updated[state.FieldDateTime] = *rec.DateTime
	}

	if rec.Cooling != nil {
		if v, err := coerce(state.DeviceSchema, state.FieldCooling, state.FieldCooling, *rec.Cooling); err != nil {
			res.fail(err)
		} else {
			dev.Attrs.Set(state.FieldCooling, v)
			updated[state.FieldCooling] = v.String()
		}
	}

	if rec.hasVacation {
		if n := mergeRecord(dev, state.FieldVacation, state.VacationSchema, rec.Vacation, res); n > 0 {
			updated[state.FieldVacation] = n
		}
	}

	if rec.hasRelais {
		if n := mergeRecord(dev, state.FieldRelais, state.RelaisSchema, rec.Relais, res); n > 0 {
			updated[state.FieldRelais] = n
		}
	}

	if len(updated) > 0 {
		res.Changes = append(res.Changes, Change{
			Action:     "update_device",
			EntityType: "device",
			EntityID:   dev.ID(),
			Details:    updated,
		})
		a.logger.Info("updated device settings", "fields", len(updated))
	}

	for _, upd := range rec.HeatAreas {
		a.applyHeatArea(dev, upd, res)
	}
}

// mergeRecord shallow-merges fields into the nested record name, creating
// it when absent, and returns how many fields were written.
func mergeRecord(dev *state.Device, name string, schema state.Schema, fields []Pair, res *Result) int {
	v, ok := dev.Attrs.Get(name)
	target := v.Record()
	if !ok || target == nil {
		target = state.NewRecord()
		dev.Attrs.Set(name, state.Nested(target))
	}

	written := 0
	for _, p := range fields {
		val, err := coerce(schema, p.Name, name+"/"+p.Name, p.Value)
		if err != nil {
			res.fail(err)
			continue
		}
		target.Set(p.Name, val)
		written++
	}
	return written
}

func (a *Applier) applyHeatArea(dev *state.Device, upd HeatAreaUpdate, res *Result) {
	area := dev.HeatArea(upd.Nr)
	if area == nil {
		res.ignore(&ReferenceError{Op: "HEATAREA", Kind: "heat area", Ref: strconv.Itoa(upd.Nr)})
		return
	}

	label := fmt.Sprintf("HEATAREA[%d]", upd.Nr)

	// Coerce everything first so T_TARGET is checked against the bounds
	// this element leaves behind, whatever order the fields arrive in.
	type pending struct {
		name  string
		field string
		value state.Value
	}
	var accepted []pending
	lo, _ := area.Get(state.FieldTTargetMin)
	hi, _ := area.Get(state.FieldTTargetMax)
	for _, p := range upd.Fields {
		field := label + "/" + p.Name
		if state.HeatAreaSchema.ReadOnly(p.Name) {
			res.fail(&ValidationError{Field: field, Reason: "read-only"})
			continue
		}
		v, err := coerce(state.HeatAreaSchema, p.Name, field, p.Value)
		if err != nil {
			res.fail(err)
			continue
		}
		switch p.Name {
		case state.FieldTTargetMin:
			lo = v
		case state.FieldTTargetMax:
			hi = v
		}
		accepted = append(accepted, pending{name: p.Name, field: field, value: v})
	}

	details := map[string]any{}
	for _, p := range accepted {
		if p.name == state.FieldTTarget {
			if err := checkTargetRange(lo, hi, p.field, p.value); err != nil {
				res.fail(err)
				continue
			}
		}
		area.Fields.Set(p.name, p.value)
		details[p.name] = p.value.String()
	}

	if len(details) > 0 {
		res.Changes = append(res.Changes, Change{
			Action:     "update_heatarea",
			EntityType: "heatarea",
			EntityID:   strconv.Itoa(upd.Nr),
			Details:    details,
		})
		a.logger.Info("updated heat area", "nr", upd.Nr, "fields", len(details))
	}
}

// checkTargetRange enforces lo <= T_TARGET <= hi. A bound that is unset or
// not numeric is not enforced.
func checkTargetRange(lo, hi state.Value, field string, v state.Value) error {
	target, _ := v.AsFloat()
	if limit, ok := lo.AsFloat(); ok && target < limit {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s below T_TARGET_MIN %s", v, state.FormatFloat(limit))}
	}
	if limit, ok := hi.AsFloat(); ok && target > limit {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s above T_TARGET_MAX %s", v, state.FormatFloat(limit))}
	}
	return nil
}

// coerce converts raw to the schema type of name. label identifies the
// field in errors.
func coerce(schema state.Schema, name, label, raw string) (state.Value, error) {
	t := schema.Lookup(name)
	v, err := state.Coerce(t, raw)
	if err != nil {
		return state.Value{}, &TypeConversionError{Field: label, Value: raw, Want: t}
	}
	return v, nil
}

package state

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType is the declared wire type of a writable field.
type FieldType uint8

// Field types.
const (
	// TypeString stores the submitted text verbatim.
	TypeString FieldType = iota
	// TypeInt requires a base-10 integer.
	TypeInt
	// TypeFloat requires a finite decimal number.
	TypeFloat
	// TypeDigits stores all-digit text as an integer and anything else verbatim.
	TypeDigits
)

// String returns the type name.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDigits:
		return "digits"
	default:
		return "unknown"
	}
}

// Schema maps field names to their declared types. Fields not listed use
// the fallback type.
type Schema struct {
	fields   map[string]FieldType
	fallback FieldType
	readOnly map[string]bool
}

// Lookup returns the declared type for name.
func (s Schema) Lookup(name string) FieldType {
	if t, ok := s.fields[name]; ok {
		return t
	}
	return s.fallback
}

// ReadOnly reports whether name cannot be written by commands.
func (s Schema) ReadOnly(name string) bool { return s.readOnly[name] }

// Coerce converts raw text into a Value of the declared type for name.
func (s Schema) Coerce(name, raw string) (Value, error) {
	return Coerce(s.Lookup(name), raw)
}

// HeatAreaSchema covers HEATAREA children. Temperatures and OFFSET are
// floats, names and lock codes are text, every other known field is an
// integer flag or selector. Unknown fields are kept verbatim.
var HeatAreaSchema = Schema{
	fields: map[string]FieldType{
		FieldHeatAreaName:     TypeString,
		"LOCK_CODE":           TypeString,
		FieldTActual:          TypeFloat,
		"T_ACTUAL_EXT":        TypeFloat,
		FieldTTarget:          TypeFloat,
		"T_TARGET_BASE":       TypeFloat,
		FieldTTargetMin:       TypeFloat,
		FieldTTargetMax:       TypeFloat,
		"OFFSET":              TypeFloat,
		"T_HEAT_DAY":          TypeFloat,
		"T_HEAT_NIGHT":        TypeFloat,
		"T_COOL_DAY":          TypeFloat,
		"T_COOL_NIGHT":        TypeFloat,
		"T_FLOOR_DAY":         TypeFloat,
		"HEATAREA_MODE":       TypeInt,
		"HEATAREA_STATE":      TypeInt,
		"PROGRAM_SOURCE":      TypeInt,
		"PROGRAM_WEEK":        TypeInt,
		"PROGRAM_WEEKEND":     TypeInt,
		"PARTY":               TypeInt,
		"PARTY_REMAININGTIME": TypeInt,
		"PRESENCE":            TypeInt,
		"RPM_MOTOR":           TypeInt,
		"HEATINGSYSTEM":       TypeInt,
		"BLOCK_HC":            TypeInt,
		"ISLOCKED":            TypeInt,
		"LOCK_AVAILABLE":      TypeInt,
		"LIGHT":               TypeInt,
		"SENSOR_EXT":          TypeInt,
		"T_TARGET_ADJUSTABLE": TypeInt,
	},
	fallback: TypeString,
	readOnly: map[string]bool{FieldNr: true},
}

// DeviceSchema covers top-level scalars accepted by direct updates.
var DeviceSchema = Schema{
	fields: map[string]FieldType{
		FieldDateTime: TypeString,
		FieldCooling:  TypeInt,
	},
	fallback: TypeString,
	readOnly: map[string]bool{FieldID: true},
}

// VacationSchema covers the VACATION record. Dates and times are kept as
// submitted; no ordering between start and end is enforced.
var VacationSchema = Schema{
	fields: map[string]FieldType{
		"VACATION_STATE": TypeInt,
	},
	fallback: TypeString,
}

// RelaisSchema covers the RELAIS record.
var RelaisSchema = Schema{fallback: TypeDigits}

// Coerce converts raw into a Value of type t. Numeric conversions ignore
// surrounding whitespace; NaN and infinities are rejected.
func Coerce(t FieldType, raw string) (Value, error) {
	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrConversion, raw)
		}
		return Int(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrConversion, raw)
		}
		return Float(f), nil
	case TypeDigits:
		if isDigits(raw) {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return Int(n), nil
			}
		}
		return String(raw), nil
	default:
		return String(raw), nil
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

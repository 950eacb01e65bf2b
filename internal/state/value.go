package state

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindRecord
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a single attribute value in the device tree: a string, an
// integer, a float, or a nested Record.
//
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	rec  *Record
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int creates an integer value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float creates a float value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Nested wraps a record as a value.
func Nested(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindRecord, rec: r}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsRecord reports whether v holds a nested record.
func (v Value) IsRecord() bool { return v.kind == KindRecord }

// Record returns the nested record, or nil for scalar values.
func (v Value) Record() *Record {
	if v.kind != KindRecord {
		return nil
	}
	return v.rec
}

// AsInt returns the integer held by v. Floats with no fractional part and
// numeric strings are accepted too.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.num, true
	case KindFloat:
		if v.flt == math.Trunc(v.flt) && !math.IsInf(v.flt, 0) {
			return int64(v.flt), true
		}
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// AsFloat returns v as a float64. Integers and numeric strings are accepted.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// String renders the canonical wire form of a scalar value. Records render
// as an empty string; callers serialise them field by field.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return FormatFloat(v.flt)
	case KindRecord:
		return ""
	default:
		return v.str
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindRecord:
		return v.rec.Equal(o.rec)
	default:
		return v.str == o.str
	}
}

func (v Value) clone() Value {
	if v.kind == KindRecord {
		return Value{kind: KindRecord, rec: v.rec.Clone()}
	}
	return v
}

// FormatFloat renders f the way the controller does: integral values keep
// one decimal ("28.0"), everything else uses the shortest exact form.
func FormatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Field is one named attribute of a Record.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Record is an ordered set of named values. Field order is preserved
// through rendering and persistence.
type Record struct {
	fields []Field
}

// NewRecord creates a record holding the given fields in order.
// Duplicate names keep the last value at the first position.
func NewRecord(fields ...Field) *Record {
	r := &Record{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Fields returns the fields in order. The slice must not be modified.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	return r.fields
}

// Has reports whether the record contains name.
func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the value for name.
func (r *Record) Get(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value for name in place, or appends it when absent.
func (r *Record) Set(name string, v Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

// Delete removes name and reports whether it was present.
func (r *Record) Delete(name string) bool {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{fields: make([]Field, len(r.fields))}
	for i, f := range r.fields {
		out.fields[i] = Field{Name: f.Name, Value: f.Value.clone()}
	}
	return out
}

// Equal reports whether both records hold the same fields in the same order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for i, f := range r.Fields() {
		g := o.fields[i]
		if f.Name != g.Name || !f.Value.Equal(g.Value) {
			return false
		}
	}
	return true
}

package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rootKey is the single top-level key of a persisted document.
const rootKey = "Device"

// MarshalJSON encodes the device as {"Device": {...}} with field order
// preserved and collections appended after the attributes.
func (d *Device) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + rootKey + `":{`)

	first := true
	for _, f := range d.Attrs.Fields() {
		writeSeparator(&buf, &first)
		if err := writeField(&buf, f); err != nil {
			return nil, err
		}
	}

	for _, c := range d.Collections() {
		writeSeparator(&buf, &first)
		writeKey(&buf, c.Name)
		buf.WriteByte('[')
		for i, e := range c.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"nr":`)
			buf.WriteString(strconv.Itoa(e.Nr))
			for _, f := range e.Fields.Fields() {
				buf.WriteByte(',')
				if err := writeField(&buf, f); err != nil {
					return nil, err
				}
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
	}

	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// MarshalIndent encodes the device with two-space indentation.
func (d *Device) MarshalIndent() ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting device document: %w", err)
	}
	return out.Bytes(), nil
}

func writeSeparator(buf *bytes.Buffer, first *bool) {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
}

func writeKey(buf *bytes.Buffer, name string) {
	k, _ := json.Marshal(name)
	buf.Write(k)
	buf.WriteByte(':')
}

func writeField(buf *bytes.Buffer, f Field) error {
	writeKey(buf, f.Name)
	return writeValue(buf, f.Value)
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind() {
	case KindInt, KindFloat:
		buf.WriteString(v.String())
	case KindRecord:
		buf.WriteByte('{')
		for i, f := range v.Record().Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeField(buf, f); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		s, err := json.Marshal(v.String())
		if err != nil {
			return fmt.Errorf("encoding %q: %w", v.String(), err)
		}
		buf.Write(s)
	}
	return nil
}

// UnmarshalJSON decodes a {"Device": {...}} document. Numbers containing a
// decimal point or exponent become floats, all others integers.
func (d *Device) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	found := false
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		if key != rootKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
			}
			continue
		}
		parsed, err := decodeDevice(dec)
		if err != nil {
			return err
		}
		*d = *parsed
		found = true
	}

	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: missing %q", ErrInvalidDocument, rootKey)
	}
	return nil
}

func decodeDevice(dec *json.Decoder) (*Device, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	d := &Device{Attrs: NewRecord()}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case CollectionHeatAreas:
			d.HeatAreas, err = decodeEntries(dec, key)
		case CollectionHeatCtrls:
			d.HeatCtrls, err = decodeEntries(dec, key)
		case CollectionIODevices:
			d.IODevices, err = decodeEntries(dec, key)
		default:
			var v Value
			v, err = decodeValue(dec, key)
			if err == nil {
				d.Attrs.Set(key, v)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if d.HeatAreas == nil {
		d.HeatAreas = []*Entry{}
	}
	if d.HeatCtrls == nil {
		d.HeatCtrls = []*Entry{}
	}
	if d.IODevices == nil {
		d.IODevices = []*Entry{}
	}
	return d, nil
}

func decodeEntries(dec *json.Decoder, collection string) ([]*Entry, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	entries := []*Entry{}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		e := &Entry{Fields: NewRecord()}
		hasNr := false
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(dec, key)
			if err != nil {
				return nil, err
			}
			if key == FieldNr {
				n, ok := v.AsInt()
				if !ok {
					return nil, fmt.Errorf("%w: %s entry has non-integer nr", ErrInvalidDocument, collection)
				}
				e.Nr = int(n)
				hasNr = true
				continue
			}
			e.Fields.Set(key, v)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		if !hasNr {
			return nil, fmt.Errorf("%w: %s entry without nr", ErrInvalidDocument, collection)
		}
		entries = append(entries, e)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeValue(dec *json.Decoder, key string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	switch t := tok.(type) {
	case json.Delim:
		if t != '{' {
			return Value{}, fmt.Errorf("%w: unsupported %q for field %s", ErrInvalidDocument, t, key)
		}
		rec := NewRecord()
		for dec.More() {
			name, err := readKey(dec)
			if err != nil {
				return Value{}, err
			}
			v, err := decodeValue(dec, name)
			if err != nil {
				return Value{}, err
			}
			rec.Set(name, v)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return Value{}, err
		}
		return Nested(rec), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t)
	case bool:
		if t {
			return Int(1), nil
		}
		return Int(0), nil
	case nil:
		return String(""), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected token %v for field %s", ErrInvalidDocument, tok, key)
	}
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: bad number %q", ErrInvalidDocument, s)
	}
	return Float(f), nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrInvalidDocument, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidDocument, want, tok)
	}
	return nil
}

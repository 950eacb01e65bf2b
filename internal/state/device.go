package state

import (
	"time"
)

// Collection and field names used throughout the device tree.
const (
	CollectionHeatAreas = "HEATAREAS"
	CollectionHeatCtrls = "HEATCTRLS"
	CollectionIODevices = "IODEVICES"

	FieldID           = "ID"
	FieldNr           = "nr"
	FieldDateTime     = "DATETIME"
	FieldDayOfWeek    = "DAYOFWEEK"
	FieldCooling      = "COOLING"
	FieldHeatAreaNr   = "HEATAREA_NR"
	FieldHeatAreaName = "HEATAREA_NAME"
	FieldIODeviceID   = "IODEVICE_ID"
	FieldIODeviceType = "IODEVICE_TYPE"
	FieldVacation     = "VACATION"
	FieldRelais       = "RELAIS"
	FieldTTarget      = "T_TARGET"
	FieldTActual      = "T_ACTUAL"
	FieldTTargetMin   = "T_TARGET_MIN"
	FieldTTargetMax   = "T_TARGET_MAX"
)

// DateTimeLayout is the controller's DATETIME format.
const DateTimeLayout = "2006-01-02T15:04:05"

// IODeviceTypeVirtual marks an I/O device created by command rather than
// paired hardware.
const IODeviceTypeVirtual = 8

// Entry is one item of a keyed collection (heat area, heat controller or
// I/O device). Nr is emitted as an XML attribute, Fields as child elements.
type Entry struct {
	Nr     int
	Fields *Record
}

// Get returns the named field of the entry.
func (e *Entry) Get(name string) (Value, bool) { return e.Fields.Get(name) }

// Int returns the named field as an integer.
func (e *Entry) Int(name string) (int64, bool) {
	v, ok := e.Fields.Get(name)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

func (e *Entry) clone() *Entry {
	return &Entry{Nr: e.Nr, Fields: e.Fields.Clone()}
}

// Device is the root of the controller state tree. It exclusively owns its
// attributes, nested records and the three collections.
type Device struct {
	// Attrs holds every top-level scalar and nested record in order.
	Attrs *Record

	HeatAreas []*Entry
	HeatCtrls []*Entry
	IODevices []*Entry

	// lastIODeviceID is the highest IODEVICE_ID handed out this session.
	// It is not persisted; ids freed by a delete are never reissued while
	// the process lives.
	lastIODeviceID int64
}

// Collection names a keyed collection together with its item element name.
type Collection struct {
	Name    string
	Item    string
	Entries []*Entry
}

// Collections returns the three collections in rendering order.
func (d *Device) Collections() []Collection {
	return []Collection{
		{Name: CollectionHeatAreas, Item: "HEATAREA", Entries: d.HeatAreas},
		{Name: CollectionHeatCtrls, Item: "HEATCTRL", Entries: d.HeatCtrls},
		{Name: CollectionIODevices, Item: "IODEVICE", Entries: d.IODevices},
	}
}

// ID returns the controller identity.
func (d *Device) ID() string {
	v, _ := d.Attrs.Get(FieldID)
	return v.String()
}

// HeatArea returns the heat area with the given nr, or nil.
func (d *Device) HeatArea(nr int) *Entry {
	for _, e := range d.HeatAreas {
		if e.Nr == nr {
			return e
		}
	}
	return nil
}

// IODeviceByID returns the first I/O device with the given IODEVICE_ID, or nil.
func (d *Device) IODeviceByID(id int64) *Entry {
	for _, e := range d.IODevices {
		if got, ok := e.Int(FieldIODeviceID); ok && got == id {
			return e
		}
	}
	return nil
}

// NextIODeviceID allocates a fresh IODEVICE_ID: one above both the largest
// id present and the largest id already issued this session.
func (d *Device) NextIODeviceID() int64 {
	next := d.lastIODeviceID
	for _, e := range d.IODevices {
		if id, ok := e.Int(FieldIODeviceID); ok && id > next {
			next = id
		}
	}
	next++
	d.lastIODeviceID = next
	return next
}

// NextIODeviceNr returns count+1, or max(nr)+1 when count+1 is taken.
func (d *Device) NextIODeviceNr() int {
	candidate := len(d.IODevices) + 1
	maxNr := 0
	taken := false
	for _, e := range d.IODevices {
		if e.Nr == candidate {
			taken = true
		}
		if e.Nr > maxNr {
			maxNr = e.Nr
		}
	}
	if taken {
		return maxNr + 1
	}
	return candidate
}

// RemoveIODevices deletes every I/O device with the given IODEVICE_ID and
// returns how many were removed.
func (d *Device) RemoveIODevices(id int64) int {
	kept := d.IODevices[:0]
	removed := 0
	for _, e := range d.IODevices {
		if got, ok := e.Int(FieldIODeviceID); ok && got == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so dropped entries are not retained by the backing array.
	for i := len(kept); i < len(d.IODevices); i++ {
		d.IODevices[i] = nil
	}
	d.IODevices = kept
	return removed
}

// SetClock writes DATETIME and DAYOFWEEK (Monday=1 … Sunday=7) for now.
func (d *Device) SetClock(now time.Time) {
	d.Attrs.Set(FieldDateTime, String(now.Format(DateTimeLayout)))
	d.Attrs.Set(FieldDayOfWeek, Int(int64(DayOfWeek(now))))
}

// DayOfWeek returns the controller's weekday number, Monday=1 … Sunday=7.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// DeepCopy returns an independent copy of the device tree.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	return &Device{
		Attrs:          d.Attrs.Clone(),
		HeatAreas:      cloneEntries(d.HeatAreas),
		HeatCtrls:      cloneEntries(d.HeatCtrls),
		IODevices:      cloneEntries(d.IODevices),
		lastIODeviceID: d.lastIODeviceID,
	}
}

func cloneEntries(in []*Entry) []*Entry {
	if in == nil {
		return nil
	}
	out := make([]*Entry, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}

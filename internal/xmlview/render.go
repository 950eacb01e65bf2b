package xmlview

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// ContentType is the media type of every document produced here.
const ContentType = "application/xml"

const ackDocument = `<?xml version="1.0" encoding="UTF-8"?><response><status>OK</status></response>`

// Render projects dev into the requested view as an indented document
// rooted at <Devices><Device>.
//
// Collections render one element per entry, named by the collection minus
// its trailing "S", with nr as an attribute.
func Render(dev *state.Device, view View) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	w := &writer{enc: enc}
	w.open("Devices")
	w.open("Device")

	switch view {
	case Static:
		w.record(dev.Attrs)
		for _, c := range dev.Collections() {
			for _, e := range c.Entries {
				w.entry(c.Item, e, nil)
			}
		}
	case Dynamic, Cyclic:
		p := projections[view]
		for _, name := range p.device {
			if v, ok := dev.Attrs.Get(name); ok {
				w.value(name, v)
			}
		}
		for _, e := range dev.HeatAreas {
			w.entry("HEATAREA", e, p.heatArea)
		}
		for _, e := range dev.IODevices {
			w.entry("IODEVICE", e, p.ioDevice)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	w.close("Device")
	w.close("Devices")
	if w.err == nil {
		w.err = enc.Flush()
	}
	if w.err != nil {
		return nil, fmt.Errorf("rendering %s view: %w", view, w.err)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Ack returns the fixed acknowledgment for an accepted command.
func Ack() []byte {
	return []byte(ackDocument)
}

// failureDocument is the body of a rejected command.
type failureDocument struct {
	XMLName xml.Name `xml:"response"`
	Status  string   `xml:"status"`
	Errors  []string `xml:"error"`
}

// Failure returns a response document listing why a command was rejected.
func Failure(messages ...string) []byte {
	out, err := xml.Marshal(failureDocument{Status: "ERROR", Errors: messages})
	if err != nil {
		return []byte(xml.Header + "<response><status>ERROR</status></response>")
	}
	return append([]byte(xml.Header), out...)
}

// writer keeps the first encoder error so rendering code stays linear.
type writer struct {
	enc *xml.Encoder
	err error
}

func (w *writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *writer) open(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *writer) close(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *writer) text(name, text string) {
	w.open(name)
	if text != "" {
		w.token(xml.CharData(text))
	}
	w.close(name)
}

func (w *writer) value(name string, v state.Value) {
	if v.IsRecord() {
		w.open(name)
		w.record(v.Record())
		w.close(name)
		return
	}
	w.text(name, v.String())
}

func (w *writer) record(r *state.Record) {
	for _, f := range r.Fields() {
		w.value(f.Name, f.Value)
	}
}

// entry writes one collection item. A nil field list writes every field.
func (w *writer) entry(item string, e *state.Entry, fields []string) {
	w.open(item, xml.Attr{Name: xml.Name{Local: "nr"}, Value: strconv.Itoa(e.Nr)})
	if fields == nil {
		w.record(e.Fields)
	} else {
		for _, name := range fields {
			if v, ok := e.Fields.Get(name); ok {
				w.value(name, v)
			}
		}
	}
	w.close(item)
}

package command

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Encode renders rec as a <Devices><Device> command document, the inverse
// of Parse for every recognised element.
func Encode(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	var err error
	emit := func(t xml.Token) {
		if err == nil {
			err = enc.EncodeToken(t)
		}
	}
	start := func(name string, attrs ...xml.Attr) {
		emit(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
	}
	end := func(name string) { emit(xml.EndElement{Name: xml.Name{Local: name}}) }
	leaf := func(name, text string) {
		start(name)
		emit(xml.CharData(text))
		end(name)
	}
	group := func(name string, fields []Pair, attrs ...xml.Attr) {
		start(name, attrs...)
		for _, p := range fields {
			leaf(p.Name, p.Value)
		}
		end(name)
	}

	start("Devices")
	start("Device")
	if rec.ID != nil {
		leaf("ID", *rec.ID)
	}
	if rec.Command != nil {
		leaf("COMMAND", *rec.Command)
	}
	if rec.DateTime != nil {
		leaf("DATETIME", *rec.DateTime)
	}
	if rec.Cooling != nil {
		leaf("COOLING", *rec.Cooling)
	}
	if rec.hasVacation {
		group("VACATION", rec.Vacation)
	}
	if rec.hasRelais {
		group("RELAIS", rec.Relais)
	}
	for _, area := range rec.HeatAreas {
		group("HEATAREA", area.Fields, xml.Attr{Name: xml.Name{Local: "nr"}, Value: strconv.Itoa(area.Nr)})
	}
	end("Device")
	end("Devices")

	if err == nil {
		err = enc.Flush()
	}
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}
	return buf.Bytes(), nil
}

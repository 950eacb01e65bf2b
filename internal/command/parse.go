package command

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// node is a generic element tree used to walk command documents without
// binding them to a fixed schema.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) name() string { return n.XMLName.Local }

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// first returns the first direct child called name.
func (n *node) first(name string) *node {
	for i := range n.Children {
		if n.Children[i].name() == name {
			return &n.Children[i]
		}
	}
	return nil
}

// all returns every direct child called name.
func (n *node) all(name string) []*node {
	var out []*node
	for i := range n.Children {
		if n.Children[i].name() == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// pairs flattens the children of n into tag/text pairs. A repeated tag
// keeps its first position and its last text.
func (n *node) pairs() []Pair {
	out := make([]Pair, 0, len(n.Children))
	index := make(map[string]int, len(n.Children))
	for _, c := range n.Children {
		if i, ok := index[c.name()]; ok {
			out[i].Value = c.Text
			continue
		}
		index[c.name()] = len(out)
		out = append(out, Pair{Name: c.name(), Value: c.Text})
	}
	return out
}

// Parse decodes a command document into a Record.
//
// Every <Device> child of the root element is read in order; values from
// later elements overwrite earlier ones. Unrecognised elements are
// ignored. Grammar problems inside an otherwise well-formed document are
// collected in Record.Problems rather than failing the parse.
//
// Returns:
//   - *ValidationError if the body is empty
//   - *ParseError if the body is not well-formed XML
func Parse(body []byte) (*Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ValidationError{Reason: "empty request body"}
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	var root node
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := expectEOF(dec); err != nil {
		return nil, &ParseError{Err: err}
	}

	rec := &Record{}
	for _, dev := range root.all("Device") {
		parseDevice(rec, dev)
	}
	return rec, nil
}

func parseDevice(rec *Record, dev *node) {
	if n := dev.first("COMMAND"); n != nil {
		cmd := strings.TrimSpace(n.Text)
		rec.Command = &cmd
		action, err := ParseAction(cmd)
		rec.Action = action
		if err != nil {
			rec.Problems = append(rec.Problems, err)
		}
	}

	if n := dev.first("ID"); n != nil {
		rec.SetID(strings.TrimSpace(n.Text))
	}

	for _, area := range dev.all("HEATAREA") {
		raw, _ := area.attr("nr")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		// Numbers below 1 parse fine and resolve to no area when applied.
		nr, err := strconv.Atoi(raw)
		if err != nil {
			rec.Problems = append(rec.Problems, conversionError("HEATAREA nr", raw))
			continue
		}
		rec.SetHeatArea(nr, area.pairs()...)
	}

	if n := dev.first("DATETIME"); n != nil {
		v := n.Text
		rec.DateTime = &v
	}
	if n := dev.first("COOLING"); n != nil {
		v := n.Text
		rec.Cooling = &v
	}
	if n := dev.first("VACATION"); n != nil {
		rec.SetVacation(n.pairs()...)
	}
	if n := dev.first("RELAIS"); n != nil {
		rec.SetRelais(n.pairs()...)
	}
}

// expectEOF rejects anything but whitespace, comments and processing
// instructions after the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after document element", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return errors.New("unexpected text after document element")
			}
		}
	}
}

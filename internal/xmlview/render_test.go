package xmlview

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// leaves decodes a rendered document into path → text, where collection
// items are addressed as HEATAREA[nr].
func leaves(t *testing.T, doc []byte) map[string]string {
	t.Helper()

	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var stack []string
	var text strings.Builder
	children := []int{0}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("document is not well-formed: %v", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			for _, a := range el.Attr {
				if a.Name.Local == "nr" {
					name += "[" + a.Value + "]"
				}
			}
			children[len(children)-1]++
			stack = append(stack, name)
			children = append(children, 0)
			text.Reset()
		case xml.CharData:
			text.Write(el)
		case xml.EndElement:
			if children[len(children)-1] == 0 {
				out[strings.Join(stack, "/")] = strings.TrimSpace(text.String())
			}
			stack = stack[:len(stack)-1]
			children = children[:len(children)-1]
			text.Reset()
		}
	}
	return out
}

func render(t *testing.T, dev *state.Device, v View) map[string]string {
	t.Helper()
	doc, err := Render(dev, v)
	if err != nil {
		t.Fatalf("Render(%s): %v", v, err)
	}
	return leaves(t, doc)
}

func TestRender_StaticDefaults(t *testing.T) {
	got := render(t, state.Default(time.Now()), Static)

	tests := map[string]string{
		"Devices/Device/ID":                           "EZR010A49",
		"Devices/Device/ANTIFREEZE_TEMP":              "8.0",
		"Devices/Device/VACATION/START_DATE":          "2015-00-00",
		"Devices/Device/NETWORK/IPV6ACTUAL":           "",
		"Devices/Device/HEATAREA[1]/HEATAREA_NAME":    "1Kitchen",
		"Devices/Device/HEATAREA[1]/T_TARGET":         "28.0",
		"Devices/Device/HEATAREA[2]/HEATAREA_NAME":    "2Bath",
		"Devices/Device/HEATAREA[2]/T_TARGET":         "21.0",
		"Devices/Device/HEATAREA[2]/T_ACTUAL":         "22.8",
		"Devices/Device/HEATCTRL[1]/ACTOR_PERCENT":    "100",
		"Devices/Device/IODEVICE[2]/IODEVICE_ID":      "2",
		"Devices/Device/IODEVICE[1]/IODEVICE_VERS_SW": "95.66",
	}
	for path, want := range tests {
		v, ok := got[path]
		if !ok {
			t.Errorf("missing %s", path)
			continue
		}
		if v != want {
			t.Errorf("%s = %q, want %q", path, v, want)
		}
	}

	if _, ok := got["Devices/Device/HEATAREA[1]/nr"]; ok {
		t.Error("nr must be an attribute, not a child element")
	}
}

func TestRender_ViewSubsetting(t *testing.T) {
	dev := state.Default(time.Now())
	dev.IODevices = append(dev.IODevices, state.NewVirtualIODevice(3, 3, 1))

	static := render(t, dev, Static)
	dynamic := render(t, dev, Dynamic)
	cyclic := render(t, dev, Cyclic)

	for path := range cyclic {
		if _, ok := dynamic[path]; !ok {
			t.Errorf("cyclic field %s missing from dynamic", path)
		}
	}
	for path := range dynamic {
		if _, ok := static[path]; !ok {
			t.Errorf("dynamic field %s missing from static", path)
		}
	}
	if len(static) <= len(dynamic) {
		t.Errorf("static (%d fields) should be a strict superset of dynamic (%d)", len(static), len(dynamic))
	}
	if len(dynamic) <= len(cyclic) {
		t.Errorf("dynamic (%d fields) should be larger than cyclic (%d)", len(dynamic), len(cyclic))
	}
}

func TestRender_DynamicAndCyclicProjection(t *testing.T) {
	dev := state.Default(time.Now())
	dynamic := render(t, dev, Dynamic)
	cyclic := render(t, dev, Cyclic)

	for _, path := range []string{
		"Devices/Device/MODE",
		"Devices/Device/ERRORCOUNT",
		"Devices/Device/HEATAREA[1]/RPM_MOTOR",
		"Devices/Device/HEATAREA[1]/SENSOR_EXT",
	} {
		if _, ok := dynamic[path]; !ok {
			t.Errorf("dynamic missing %s", path)
		}
		if _, ok := cyclic[path]; ok {
			t.Errorf("cyclic should not contain %s", path)
		}
	}

	for _, view := range []map[string]string{dynamic, cyclic} {
		for _, path := range []string{
			"Devices/Device/ID",
			"Devices/Device/NETWORK/MAC",
			"Devices/Device/HEATAREA[1]/HEATAREA_NAME",
			"Devices/Device/HEATCTRL[1]/ACTOR",
			"Devices/Device/IODEVICE[1]/IODEVICE_ID",
		} {
			if _, ok := view[path]; ok {
				t.Errorf("subset view should not contain %s", path)
			}
		}
		if view["Devices/Device/CLOUD/M2MSTATE"] != "Offline" {
			t.Error("CLOUD record should be rendered in full")
		}
		if view["Devices/Device/IODEVICE[2]/BATTERY"] != "2" {
			t.Error("IODEVICE status fields missing")
		}
	}
}

func TestRender_DocumentShape(t *testing.T) {
	doc, err := Render(state.Default(time.Now()), Cyclic)
	if err != nil {
		t.Fatal(err)
	}
	s := string(doc)
	if !strings.HasPrefix(s, "<?xml") {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(s, "\n  <Device>\n    <DATETIME>") {
		t.Errorf("document not indented with two spaces:\n%s", s[:200])
	}
	if !strings.Contains(s, `<HEATAREA nr="1">`) {
		t.Error("heat area nr attribute missing")
	}
}

func TestRender_UnknownView(t *testing.T) {
	if _, err := Render(state.Default(time.Now()), View("weekly")); !errors.Is(err, ErrUnknownView) {
		t.Errorf("err = %v, want ErrUnknownView", err)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"static", Static, false},
		{"dynamic.xml", Dynamic, false},
		{"CYCLIC.xml", Cyclic, false},
		{"changes.xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseView(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestAckAndFailure(t *testing.T) {
	if string(Ack()) != `<?xml version="1.0" encoding="UTF-8"?><response><status>OK</status></response>` {
		t.Errorf("Ack() = %s", Ack())
	}

	got := leaves(t, Failure("T_TARGET: not a number", "COOLING: not an integer"))
	if got["response/status"] != "ERROR" {
		t.Errorf("status = %q", got["response/status"])
	}
}

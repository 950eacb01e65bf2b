package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Wire prefixes of the special command grammar.
const (
	prefixCreate  = "CMD_CREATE_XMLDEVICE:"
	prefixConnect = "CMD_CONNECT_XMLDEVICE:"
	prefixDelete  = "CMD_DELETE_XMLDEVICE:"
)

// Action is a decoded special command.
type Action interface {
	// Name is the journal action name, e.g. "create_xmldevice".
	Name() string
	// String renders the wire form, e.g. "CMD_CREATE_XMLDEVICE:1".
	String() string
}

// CreateVirtualDevice adds a type-8 I/O device bound to the first area.
type CreateVirtualDevice struct {
	AreaIDs []int64
}

// Name implements Action.
func (CreateVirtualDevice) Name() string { return "create_xmldevice" }

func (c CreateVirtualDevice) String() string { return prefixCreate + joinIDs(c.AreaIDs) }

// ConnectVirtualDevice rebinds an I/O device to the first listed area.
type ConnectVirtualDevice struct {
	DeviceID int64
	AreaIDs  []int64
}

// Name implements Action.
func (ConnectVirtualDevice) Name() string { return "connect_xmldevice" }

func (c ConnectVirtualDevice) String() string {
	return prefixConnect + joinIDs(append([]int64{c.DeviceID}, c.AreaIDs...))
}

// DeleteVirtualDevice removes every I/O device with the given id.
type DeleteVirtualDevice struct {
	DeviceID int64
}

// Name implements Action.
func (DeleteVirtualDevice) Name() string { return "delete_xmldevice" }

func (d DeleteVirtualDevice) String() string {
	return prefixDelete + strconv.FormatInt(d.DeviceID, 10)
}

// ParseAction decodes the COMMAND grammar. It returns (nil, nil) for
// commands it does not know, which are ignored on the wire.
func ParseAction(command string) (Action, error) {
	command = strings.TrimSpace(command)

	switch {
	case strings.HasPrefix(command, prefixCreate):
		ids, err := parseIDs("COMMAND", strings.TrimPrefix(command, prefixCreate))
		if err != nil {
			return nil, err
		}
		return CreateVirtualDevice{AreaIDs: ids}, nil

	case strings.HasPrefix(command, prefixConnect):
		ids, err := parseIDs("COMMAND", strings.TrimPrefix(command, prefixConnect))
		if err != nil {
			return nil, err
		}
		if len(ids) < 2 {
			return nil, &ValidationError{Field: "COMMAND", Reason: "connect needs a device id and at least one heat area"}
		}
		return ConnectVirtualDevice{DeviceID: ids[0], AreaIDs: ids[1:]}, nil

	case strings.HasPrefix(command, prefixDelete):
		raw := strings.TrimSpace(strings.TrimPrefix(command, prefixDelete))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, conversionError("COMMAND", raw)
		}
		return DeleteVirtualDevice{DeviceID: id}, nil
	}

	return nil, nil
}

func parseIDs(field, list string) ([]int64, error) {
	if strings.TrimSpace(list) == "" {
		return nil, &ValidationError{Field: field, Reason: "missing id list"}
	}
	parts := strings.Split(list, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, conversionError(field, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Pair is one submitted child element: tag and text.
type Pair struct {
	Name  string
	Value string
}

// HeatAreaUpdate carries the fields submitted for one HEATAREA element.
type HeatAreaUpdate struct {
	Nr     int
	Fields []Pair
}

// Record is the structured form of a command document. Optional scalars
// are nil when their element was absent.
type Record struct {
	// Command is the raw COMMAND text; Action its decoded form, nil when
	// the command is unknown or malformed.
	Command *string
	Action  Action

	ID *string

	HeatAreas []HeatAreaUpdate
	DateTime  *string
	Cooling   *string
	Vacation  []Pair
	Relais    []Pair

	hasVacation bool
	hasRelais   bool

	// Problems are grammar errors found while parsing. They are reported
	// alongside apply errors and never abort the rest of the batch.
	Problems []error
}

// Empty reports whether no recognised element was present.
func (r *Record) Empty() bool {
	return r.Command == nil && r.ID == nil && len(r.HeatAreas) == 0 &&
		r.DateTime == nil && r.Cooling == nil && !r.hasVacation && !r.hasRelais &&
		len(r.Problems) == 0
}

// HasDirectUpdates reports whether the record carries updates gated on ID.
func (r *Record) HasDirectUpdates() bool {
	return len(r.HeatAreas) > 0 || r.DateTime != nil || r.Cooling != nil || r.hasVacation || r.hasRelais
}

// SetVacation sets the VACATION fields to merge.
func (r *Record) SetVacation(fields ...Pair) {
	r.Vacation = fields
	r.hasVacation = true
}

// SetRelais sets the RELAIS fields to merge.
func (r *Record) SetRelais(fields ...Pair) {
	r.Relais = fields
	r.hasRelais = true
}

// SetHeatArea sets the fields submitted for area nr. A second call for the
// same nr replaces the earlier fields.
func (r *Record) SetHeatArea(nr int, fields ...Pair) {
	for i := range r.HeatAreas {
		if r.HeatAreas[i].Nr == nr {
			r.HeatAreas[i].Fields = fields
			return
		}
	}
	r.HeatAreas = append(r.HeatAreas, HeatAreaUpdate{Nr: nr, Fields: fields})
}

// SetAction sets both the decoded action and its wire form.
func (r *Record) SetAction(a Action) {
	s := a.String()
	r.Command = &s
	r.Action = a
}

// SetID sets the device ID gate for direct updates.
func (r *Record) SetID(id string) { r.ID = &id }

func conversionError(field, raw string) error {
	return &TypeConversionError{Field: field, Value: raw, Want: state.TypeInt}
}

// describe formats a record for debug logs.
func (r *Record) describe() string {
	var b strings.Builder
	if r.Command != nil {
		fmt.Fprintf(&b, "command=%q ", *r.Command)
	}
	if r.ID != nil {
		fmt.Fprintf(&b, "id=%q ", *r.ID)
	}
	fmt.Fprintf(&b, "heatareas=%d", len(r.HeatAreas))
	return b.String()
}

package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves the prefix empty.
const DefaultTopicPrefix = "alpha2"

// Topics builds the topic hierarchy under one prefix:
//
//	{prefix}/status                  online/offline (retained, LWT)
//	{prefix}/state/heatarea/{nr}     heat area snapshot (retained)
//	{prefix}/state/iodevice/{id}     IO device snapshot (retained)
//	{prefix}/diagnostics             ignored commands and reference warnings
//	{prefix}/command                 XML command bodies, applied like changes.xml
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if p := strings.TrimSuffix(t.Prefix, "/"); p != "" {
		return p
	}
	return DefaultTopicPrefix
}

// Status returns the retained online/offline topic.
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// HeatAreaState returns the state topic of heat area nr.
//
// Example: alpha2/state/heatarea/1
func (t Topics) HeatAreaState(nr int) string {
	return fmt.Sprintf("%s/state/heatarea/%d", t.prefix(), nr)
}

// IODeviceState returns the state topic of IO device id.
//
// Example: alpha2/state/iodevice/3
func (t Topics) IODeviceState(id int64) string {
	return fmt.Sprintf("%s/state/iodevice/%d", t.prefix(), id)
}

// AllStates matches every state topic.
func (t Topics) AllStates() string {
	return t.prefix() + "/state/#"
}

// Diagnostics returns the diagnostics topic.
func (t Topics) Diagnostics() string {
	return t.prefix() + "/diagnostics"
}

// Command returns the topic accepting XML command documents.
func (t Topics) Command() string {
	return t.prefix() + "/command"
}

package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/api"
	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Broadcaster is the part of *api.Hub the observers need.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BroadcastState returns a state.CommitFunc sending the committed tree, in
// its persisted JSON layout, to "state.changed" subscribers.
func BroadcastState(b Broadcaster, logger Logger) state.CommitFunc {
	if logger == nil {
		logger = noopLogger{}
	}
	return func(_ context.Context, dev *state.Device) {
		doc, err := dev.MarshalJSON()
		if err != nil {
			logger.Error("failed to encode state for broadcast", "error", err)
			return
		}
		b.Broadcast(api.ChannelStateChanged, json.RawMessage(doc))
	}
}

// BroadcastDiagnostics returns a command.Diagnostics sending each
// diagnostic to "diagnostic" subscribers.
func BroadcastDiagnostics(b Broadcaster) command.Diagnostics {
	return command.DiagnosticsFunc(func(_ context.Context, err error) {
		b.Broadcast(api.ChannelDiagnostic, newDiagnostic(err, time.Now()))
	})
}

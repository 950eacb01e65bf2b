package telemetry

import (
	"errors"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Logger defines the logging interface used by the observers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Diagnostic is the published form of a command that had no effect or
// was rejected.
type Diagnostic struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func newDiagnostic(err error, now time.Time) Diagnostic {
	return Diagnostic{
		Kind:      diagnosticKind(err),
		Message:   err.Error(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func diagnosticKind(err error) string {
	switch {
	case errors.Is(err, command.ErrReference):
		return "reference"
	case errors.Is(err, command.ErrTypeConversion):
		return "type_conversion"
	case errors.Is(err, command.ErrValidation):
		return "validation"
	case errors.Is(err, command.ErrParse):
		return "parse"
	default:
		return "other"
	}
}

// entryPayload flattens a collection entry into a JSON-ready map with its
// nr included.
func entryPayload(e *state.Entry) map[string]any {
	out := recordPayload(e.Fields)
	out[state.FieldNr] = e.Nr
	return out
}

func recordPayload(r *state.Record) map[string]any {
	out := make(map[string]any, r.Len()+1)
	for _, f := range r.Fields() {
		out[f.Name] = valuePayload(f.Value)
	}
	return out
}

func valuePayload(v state.Value) any {
	switch v.Kind() {
	case state.KindInt:
		n, _ := v.AsInt()
		return n
	case state.KindFloat:
		f, _ := v.AsFloat()
		return f
	case state.KindRecord:
		return recordPayload(v.Record())
	default:
		return v.String()
	}
}

var _ command.Diagnostics = (*DiagnosticsPublisher)(nil)

package command

import "context"

// Diagnostics receives commands that were accepted on the wire but had no
// effect: unknown ids, unknown areas, a mismatched device ID, unknown
// command verbs. The protocol stays silent about them; this is where they
// surface.
type Diagnostics interface {
	Report(ctx context.Context, err error)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(ctx context.Context, err error)

// Report implements Diagnostics.
func (f DiagnosticsFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// LogDiagnostics writes each diagnostic as a warning.
func LogDiagnostics(logger Logger) Diagnostics {
	return DiagnosticsFunc(func(_ context.Context, err error) {
		logger.Warn("command had no effect", "reason", err.Error())
	})
}

// Fanout delivers each diagnostic to every sink in order.
func Fanout(sinks ...Diagnostics) Diagnostics {
	return DiagnosticsFunc(func(ctx context.Context, err error) {
		for _, s := range sinks {
			if s != nil {
				s.Report(ctx, err)
			}
		}
	})
}

// Package telemetry fans committed device state and command diagnostics
// out to the optional outer systems of the mock controller.
//
//	state.Store ──OnCommit──┬── StatePublisher   MQTT {prefix}/state/heatarea/{nr}
//	                        │                    MQTT {prefix}/state/iodevice/{id}
//	                        ├── Recorder         InfluxDB "heatarea" measurement
//	                        └── BroadcastState   WebSocket "state.changed"
//
//	command.Processor ─Diagnostics─┬── DiagnosticsPublisher  MQTT {prefix}/diagnostics
//	                               └── BroadcastDiagnostics  WebSocket "diagnostic"
//
//	MQTT {prefix}/command ── CommandListener ── command.Processor (source "mqtt")
//
// Observers run after the store lock is released, on the goroutine that
// committed. They never fail the commit; errors are logged.
package telemetry

// Package api provides the HTTP server of the Alpha 2 mock controller.
//
// Two surfaces share one chi router:
//
//	/data/static.xml    GET   full device tree
//	/data/dynamic.xml   GET   operating values
//	/data/cyclic.xml    GET   clock and temperatures (stamps DATETIME first)
//	/data/changes.xml   POST  command document, answered with <response>
//
//	/api/v1/health      GET   store, database and MQTT status
//	/api/v1/state       GET   device tree in its persisted JSON layout
//	/api/v1/audit       GET   command journal
//	/api/v1/ws          GET   WebSocket hub (state.changed, diagnostic)
//
// Every state read and write goes through the state.Store, so concurrent
// requests are serialised there and never interleave a load-mutate-save.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

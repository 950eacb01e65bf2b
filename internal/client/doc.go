// Package client is the protocol client for Alpha 2 controllers.
//
// It reads the XML views and submits command documents built with the
// command package, so what it sends is exactly what the mock parses:
//
//	c := client.New("192.168.1.50", client.WithLogger(log))
//	if !c.CreateVirtualDevice(ctx, 1) { ... }
//	c.UpdateActualTemperature(ctx, 1, 21.4)
//
// Temperature writes carry the controller's Device/ID, looked up from the
// static view once and cached.
package client

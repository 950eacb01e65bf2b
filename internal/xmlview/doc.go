// Package xmlview renders the controller's XML views.
//
// Three projections of the same device tree are served:
//
//   - Static: everything, used once at pairing time.
//   - Dynamic: operating values of the device, heat areas and I/O devices.
//   - Cyclic: the narrowest set, polled continuously.
//
// Every field in a Cyclic document also appears in the Dynamic document
// for the same state, and Static is a superset of Dynamic.
package xmlview

// Package state holds the Alpha 2 controller's device tree and the store
// that owns it.
//
// The tree mirrors the controller's own layout: one Device with ordered
// top-level attributes, nested records (VACATION, NETWORK, CLOUD, KWLCTRL,
// CODE, RELAIS) and three keyed collections (HEATAREAS, HEATCTRLS,
// IODEVICES). Order is preserved because the XML views are rendered in
// document order.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                            Store                             │
//	│  • one mutex around load → mutate copy → save → swap         │
//	│  • defaults persisted on first access                        │
//	│  • commit observers (MQTT, websocket, InfluxDB)              │
//	└──────────────────────────────┬───────────────────────────────┘
//	                               │ Backend
//	        ┌──────────────────────┼───────────────────────┐
//	        ▼                      ▼                       ▼
//	  FileBackend            SQLiteBackend            RedisBackend
//	  (JSON on disk)         (device_state row)       (string key)
//
// # Persisted Layout
//
//	{"Device": {"ID": "EZR010A49", …, "HEATAREAS": [{"nr": 1, …}], …}}
//
// Numbers with a decimal point or exponent load as floats, others as
// integers. Floats are written with at least one decimal.
//
// # Field Schema
//
// Commands submit text. HeatAreaSchema, DeviceSchema, VacationSchema and
// RelaisSchema declare how each field is converted; Coerce returns an error
// wrapping ErrConversion for text that does not fit.
//
// # Usage
//
//	store := state.NewStore(state.NewFileBackend("alpha2_data.json"))
//	store.SetLogger(log)
//
//	dev, err := store.Update(ctx, func(d *state.Device) error {
//	    d.HeatArea(1).Fields.Set("T_TARGET", state.Float(19.5))
//	    return nil
//	})
package state

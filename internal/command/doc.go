// Package command parses and applies Alpha 2 command documents.
//
// A command document is POSTed to /data/changes.xml (or published on the
// MQTT command topic):
//
//	<Devices>
//	  <Device>
//	    <ID>EZR010A49</ID>
//	    <HEATAREA nr="1"><T_TARGET>19.5</T_TARGET></HEATAREA>
//	  </Device>
//	</Devices>
//
// Parse turns the document into a Record. The COMMAND grammar
// ("CMD_CREATE_XMLDEVICE:1", "CMD_CONNECT_XMLDEVICE:3,2",
// "CMD_DELETE_XMLDEVICE:3") is decoded there into an Action value and
// never travels further as a string.
//
// Applier.Apply mutates a device tree. Direct updates are gated on the
// record's ID matching the device. Each field is converted through the
// schemas in package state and applied independently.
//
// # Errors
//
//   - ParseError: body is not well-formed XML (HTTP 400)
//   - ValidationError: empty body, nothing recognised, or a value out of range (HTTP 400)
//   - TypeConversionError: text where a number is required (HTTP 400, rest of batch applied)
//   - ReferenceError: unknown device or area; not an error on the wire, sent to Diagnostics
//
// Processor ties Parse and Apply to a state.Store so a whole command runs
// as one store transaction.
package command

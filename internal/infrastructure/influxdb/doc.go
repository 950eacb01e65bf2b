// Package influxdb records heating telemetry in InfluxDB v2.
//
// Two measurements are written:
//
//	heatarea     tags nr, name      fields t_actual, t_target, mode
//	bridge_sync  tags area, entity  fields value, success
//
// heatarea points are queued after every committed state change of the
// mock; bridge_sync points after every temperature the bridge pushes.
// Writes are non-blocking and batched; failures arrive through SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteHeatArea(influxdb.HeatAreaSample{Nr: 1, TActual: &t}, time.Now())
package influxdb

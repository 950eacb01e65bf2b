package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHeatArea = "heatarea"
	MeasurementSync     = "bridge_sync"
)

// HeatAreaSample is the telemetry of one heat area at one instant.
// A nil pointer means the controller did not report the value.
type HeatAreaSample struct {
	Nr      int
	Name    string
	TActual *float64
	TTarget *float64
	Mode    *int64
}

// WriteHeatArea queues one heatarea point (tags nr and name; fields
// t_actual, t_target, mode). Samples without any field are dropped.
func (c *Client) WriteHeatArea(s HeatAreaSample, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if p := heatAreaPoint(s, at); p != nil {
		c.writeAPI.WritePoint(p)
	}
}

func heatAreaPoint(s HeatAreaSample, at time.Time) *write.Point {
	fields := make(map[string]any, 3)
	if s.TActual != nil {
		fields["t_actual"] = *s.TActual
	}
	if s.TTarget != nil {
		fields["t_target"] = *s.TTarget
	}
	if s.Mode != nil {
		fields["mode"] = *s.Mode
	}
	if len(fields) == 0 {
		return nil
	}

	tags := map[string]string{"nr": strconv.Itoa(s.Nr)}
	if s.Name != "" {
		tags["name"] = s.Name
	}
	return write.NewPoint(MeasurementHeatArea, tags, fields, at)
}

// WriteSync records a temperature pushed by the bridge from a Home
// Assistant entity to a heat area.
func (c *Client) WriteSync(areaID int, entityID string, value float64, ok bool, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(syncPoint(areaID, entityID, value, ok, at))
}

func syncPoint(areaID int, entityID string, value float64, ok bool, at time.Time) *write.Point {
	return write.NewPoint(MeasurementSync,
		map[string]string{
			"area":   strconv.Itoa(areaID),
			"entity": entityID,
		},
		map[string]any{
			"value":   value,
			"success": ok,
		},
		at,
	)
}

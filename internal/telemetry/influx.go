package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// HeatAreaWriter is the part of *influxdb.Client the recorder needs.
type HeatAreaWriter interface {
	WriteHeatArea(s influxdb.HeatAreaSample, at time.Time)
}

// Recorder writes one heatarea point per heat area after each commit.
// Cyclic polls commit too, so the series is sampled at the poll rate.
type Recorder struct {
	w   HeatAreaWriter
	now func() time.Time
}

// NewRecorder creates a recorder writing through w.
func NewRecorder(w HeatAreaWriter) *Recorder {
	return &Recorder{w: w, now: time.Now}
}

// Commit is a state.CommitFunc.
func (r *Recorder) Commit(_ context.Context, dev *state.Device) {
	at := r.now()
	for _, e := range dev.HeatAreas {
		r.w.WriteHeatArea(heatAreaSample(e), at)
	}
}

func heatAreaSample(e *state.Entry) influxdb.HeatAreaSample {
	s := influxdb.HeatAreaSample{Nr: e.Nr}
	if v, ok := e.Get(state.FieldHeatAreaName); ok {
		s.Name = v.String()
	}
	if v, ok := e.Get(state.FieldTActual); ok {
		if f, ok := v.AsFloat(); ok {
			s.TActual = &f
		}
	}
	if v, ok := e.Get(state.FieldTTarget); ok {
		if f, ok := v.AsFloat(); ok {
			s.TTarget = &f
		}
	}
	if mode, ok := e.Int("HEATAREA_MODE"); ok {
		s.Mode = &mode
	}
	return s
}

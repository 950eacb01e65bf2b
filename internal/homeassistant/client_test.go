package homeassistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeHA serves /api/states/{id} from a fixed table of JSON bodies.
func fakeHA(t *testing.T, token string, states map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := states[r.URL.Path[len("/api/states/"):]]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Entity not found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestState(t *testing.T) {
	ts := fakeHA(t, "secret", map[string]string{
		"sensor.kitchen": `{"entity_id":"sensor.kitchen","state":"21.4","attributes":{"unit_of_measurement":"°C"},"last_updated":"2026-03-01T08:00:00+00:00"}`,
	})
	c := New(ts.URL+"/", "secret", time.Second)

	e, err := c.State(context.Background(), "sensor.kitchen")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if e.EntityID != "sensor.kitchen" || e.State != "21.4" {
		t.Errorf("entity = %+v", e)
	}
	if e.Attributes["unit_of_measurement"] != "°C" {
		t.Errorf("attributes = %v", e.Attributes)
	}
	if e.LastUpdated.IsZero() {
		t.Error("LastUpdated not parsed")
	}
}

func TestState_Errors(t *testing.T) {
	ts := fakeHA(t, "secret", nil)

	_, err := New(ts.URL, "secret", time.Second).State(context.Background(), "sensor.missing")
	var re *RequestError
	if !errors.As(err, &re) || re.StatusCode != http.StatusNotFound {
		t.Errorf("missing entity error = %v", err)
	}
	if !errors.Is(err, ErrRequest) {
		t.Errorf("error %v is not ErrRequest", err)
	}

	_, err = New(ts.URL, "wrong", time.Second).State(context.Background(), "sensor.missing")
	if !errors.As(err, &re) || re.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token error = %v", err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = New(closed.URL, "", time.Second).State(context.Background(), "sensor.kitchen")
	if !errors.As(err, &re) || re.Err == nil {
		t.Errorf("unreachable error = %v", err)
	}
}

func TestEntityTemperature(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		want    float64
		wantErr error
	}{
		{"numeric state", Entity{State: "20.5"}, 20.5, nil},
		{"padded state", Entity{State: " 19 "}, 19, nil},
		{"attribute fallback", Entity{State: "heat", Attributes: map[string]any{"temperature": 22.0}}, 22, nil},
		{"string attribute", Entity{State: "heat", Attributes: map[string]any{"temperature": "18.5"}}, 18.5, nil},
		{"unavailable", Entity{State: "unavailable"}, 0, ErrUnavailable},
		{"unknown", Entity{State: "unknown", Attributes: map[string]any{"temperature": 22.0}}, 0, ErrUnavailable},
		{"not numeric", Entity{State: "off"}, 0, ErrNotNumeric},
		{"bad attribute", Entity{State: "heat", Attributes: map[string]any{"temperature": true}}, 0, ErrNotNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entity.Temperature()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Temperature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemperature(t *testing.T) {
	ts := fakeHA(t, "tok", map[string]string{
		"climate.bath": `{"entity_id":"climate.bath","state":"heat","attributes":{"temperature":21.5}}`,
	})
	c := New(ts.URL, "tok", 0)

	got, err := c.Temperature(context.Background(), "climate.bath")
	if err != nil || got != 21.5 {
		t.Errorf("Temperature() = %v, %v", got, err)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New("", "", 0)
	if c.baseURL != DefaultURL {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.http.GetClient().Timeout != DefaultTimeout {
		t.Errorf("timeout = %v", c.http.GetClient().Timeout)
	}
}

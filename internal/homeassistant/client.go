package homeassistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultURL is the Supervisor proxy for the core API.
const DefaultURL = "http://supervisor/core"

// DefaultTimeout bounds each state request.
const DefaultTimeout = 10 * time.Second

// States Home Assistant reports when an entity has no reading.
const (
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// Entity is the subset of a state object the bridge reads.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Client fetches entity states.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a client.
//
// Parameters:
//   - baseURL: API root; "" selects DefaultURL
//   - token: Long-lived or Supervisor token, sent as a Bearer credential
//   - timeout: Per-request timeout; zero selects DefaultTimeout
func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")

	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		r.SetAuthToken(token)
	}
	return &Client{http: r, baseURL: baseURL}
}

// State returns the current state object of entityID.
func (c *Client) State(ctx context.Context, entityID string) (*Entity, error) {
	var entity Entity
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&entity).
		Get("/api/states/" + url.PathEscape(entityID))
	if err != nil {
		return nil, &RequestError{EntityID: entityID, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RequestError{EntityID: entityID, StatusCode: resp.StatusCode()}
	}
	return &entity, nil
}

// Temperature reads entityID and extracts its temperature.
func (c *Client) Temperature(ctx context.Context, entityID string) (float64, error) {
	entity, err := c.State(ctx, entityID)
	if err != nil {
		return 0, err
	}
	return entity.Temperature()
}

// Temperature returns the numeric state, or the "temperature" attribute
// when the state is not a number (climate entities report their mode
// there).
//
// Returns:
//   - float64: The reading
//   - error: ErrUnavailable or ErrNotNumeric
func (e *Entity) Temperature() (float64, error) {
	switch e.State {
	case StateUnavailable, StateUnknown:
		return 0, fmt.Errorf("%w: %s is %s", ErrUnavailable, e.EntityID, e.State)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(e.State), 64); err == nil {
		return v, nil
	}
	switch v := e.Attributes["temperature"].(type) {
	case float64:
		return v, nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %s state %q", ErrNotNumeric, e.EntityID, e.State)
}

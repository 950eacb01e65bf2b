package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// staticDocument decodes the parts of static.xml the client reads.
type staticDocument struct {
	Device struct {
		ID        string       `xml:"ID"`
		IODevices []xmlElement `xml:"IODEVICE"`
	} `xml:"Device"`
}

type xmlElement struct {
	Nr       string    `xml:"nr,attr"`
	Children []xmlLeaf `xml:",any"`
}

type xmlLeaf struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

func (c *Client) static(ctx context.Context) (*staticDocument, error) {
	body, err := c.FetchStatic(ctx)
	if err != nil {
		return nil, err
	}
	var doc staticDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &doc, nil
}

// DeviceID returns the controller's Device/ID, reading the static view on
// first use and caching it afterwards.
func (c *Client) DeviceID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.deviceID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	doc, err := c.static(ctx)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(doc.Device.ID)
	if id == "" {
		return "", ErrNoDeviceID
	}

	c.mu.Lock()
	c.deviceID = id
	c.mu.Unlock()
	return id, nil
}

// FetchDeviceID is DeviceID with the error logged. Returns "" on failure.
func (c *Client) FetchDeviceID(ctx context.Context) string {
	id, err := c.DeviceID(ctx)
	if err != nil {
		c.logger.Error("failed to fetch device id", "error", err)
		return ""
	}
	return id
}

// ListIODevices returns every IODEVICE of the static view keyed by its nr
// attribute. Each map holds the element's children by tag, plus "nr".
func (c *Client) ListIODevices(ctx context.Context) (map[int]map[string]string, error) {
	doc, err := c.static(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int]map[string]string, len(doc.Device.IODevices))
	for _, el := range doc.Device.IODevices {
		nr, err := strconv.Atoi(strings.TrimSpace(el.Nr))
		if err != nil {
			return nil, fmt.Errorf("%w: IODEVICE nr %q", ErrMalformedResponse, el.Nr)
		}
		fields := make(map[string]string, len(el.Children)+1)
		fields["nr"] = el.Nr
		for _, child := range el.Children {
			fields[child.XMLName.Local] = strings.TrimSpace(child.Text)
		}
		out[nr] = fields
	}
	return out, nil
}

// FetchAllIODevices is ListIODevices with the error logged. Returns nil on
// failure.
func (c *Client) FetchAllIODevices(ctx context.Context) map[int]map[string]string {
	devices, err := c.ListIODevices(ctx)
	if err != nil {
		c.logger.Error("failed to fetch io devices", "error", err)
		return nil
	}
	return devices
}

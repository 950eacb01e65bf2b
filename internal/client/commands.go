package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Apply encodes rec and submits it.
func (c *Client) Apply(ctx context.Context, rec *command.Record) error {
	body, err := command.Encode(rec)
	if err != nil {
		return err
	}
	return c.Submit(ctx, body)
}

// run applies rec and converts the outcome to the boolean contract.
func (c *Client) run(ctx context.Context, what string, rec *command.Record) bool {
	if err := c.Apply(ctx, rec); err != nil {
		c.logger.Error("command failed", "command", what, "error", err)
		return false
	}
	c.logger.Info("command sent", "command", what)
	return true
}

func actionRecord(a command.Action) *command.Record {
	rec := &command.Record{}
	rec.SetAction(a)
	return rec
}

// CreateVirtualDevice sends CMD_CREATE_XMLDEVICE for areaID.
func (c *Client) CreateVirtualDevice(ctx context.Context, areaID int) bool {
	a := command.CreateVirtualDevice{AreaIDs: []int64{int64(areaID)}}
	return c.run(ctx, a.String(), actionRecord(a))
}

// ConnectVirtualDevice sends CMD_CONNECT_XMLDEVICE, binding deviceID to the
// first of areaIDs.
func (c *Client) ConnectVirtualDevice(ctx context.Context, deviceID int64, areaIDs ...int) bool {
	if len(areaIDs) == 0 {
		c.logger.Error("command failed", "command", "CMD_CONNECT_XMLDEVICE", "error", "no heat area given")
		return false
	}
	ids := make([]int64, len(areaIDs))
	for i, id := range areaIDs {
		ids[i] = int64(id)
	}
	a := command.ConnectVirtualDevice{DeviceID: deviceID, AreaIDs: ids}
	return c.run(ctx, a.String(), actionRecord(a))
}

// DeleteVirtualDevice sends CMD_DELETE_XMLDEVICE for deviceID.
func (c *Client) DeleteVirtualDevice(ctx context.Context, deviceID int64) bool {
	a := command.DeleteVirtualDevice{DeviceID: deviceID}
	return c.run(ctx, a.String(), actionRecord(a))
}

// UpdateActualTemperature reports a measured temperature for a heat area.
func (c *Client) UpdateActualTemperature(ctx context.Context, areaID int, value float64) bool {
	return c.setHeatAreaField(ctx, areaID, state.FieldTActual, value)
}

// SetTargetTemperature changes the setpoint of a heat area.
func (c *Client) SetTargetTemperature(ctx context.Context, areaID int, value float64) bool {
	return c.setHeatAreaField(ctx, areaID, state.FieldTTarget, value)
}

// setHeatAreaField writes one float field of a heat area. The device ID is
// included because the controller ignores direct updates without it.
func (c *Client) setHeatAreaField(ctx context.Context, areaID int, field string, value float64) bool {
	what := fmt.Sprintf("HEATAREA %d %s", areaID, field)

	id, err := c.DeviceID(ctx)
	if err != nil {
		c.logger.Error("command failed", "command", what, "error", err)
		return false
	}

	rec := &command.Record{}
	rec.SetID(id)
	rec.SetHeatArea(areaID, command.Pair{Name: field, Value: state.FormatFloat(value)})
	return c.run(ctx, what+"="+strconv.FormatFloat(value, 'f', -1, 64), rec)
}

package link

import (
	"fmt"

	"gamer/core"
	"gamer/protocol"
)

// InputState is the reply to query_input
type InputState struct {
	Pressed uint8 // events latched since the previous query, one bit per channel
	Held    uint8 // digital channels active now
	Analog  uint16
}

// WasPressed reports whether ch latched an event
func (s InputState) WasPressed(ch core.Channel) bool {
	return ch.Valid() && s.Pressed&(1<<uint(ch)) != 0
}

// IsHeld reports whether ch is active
func (s InputState) IsHeld(ch core.Channel) bool {
	return ch.Valid() && s.Held&(1<<uint(ch)) != 0
}

// Status is the reply to get_status
type Status struct {
	RowPeriod uint16
	Ticks     uint32
	Faults    uint32
}

func noArgs(protocol.OutputBuffer) {}

func (c *Client) LoadFrame(f core.Frame) error {
	return c.Send("load_frame", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQBytes(output, f[:])
	})
}

// SetPixel changes the console's working buffer; CommitFrame shows it
func (c *Client) SetPixel(x, y uint8, on bool) error {
	return c.Send("set_pixel", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(x))
		protocol.EncodeVLQUint(output, uint32(y))
		protocol.EncodeVLQBool(output, on)
	})
}

func (c *Client) CommitFrame() error {
	return c.Send("commit_frame", noArgs)
}

func (c *Client) Clear() error {
	return c.Send("clear_display", noArgs)
}

func (c *Client) Fill() error {
	return c.Send("fill_display", noArgs)
}

// GetFrame returns the frame the console is scanning out
func (c *Client) GetFrame() (core.Frame, error) {
	var f core.Frame
	payload, err := c.Query("get_frame", noArgs, "frame")
	if err != nil {
		return f, err
	}
	lines, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return f, err
	}
	if len(lines) != core.DisplaySize {
		return f, fmt.Errorf("frame has %d lines", len(lines))
	}
	copy(f[:], lines)
	return f, nil
}

func (c *Client) SetRowPeriod(ticks uint16) error {
	return c.Send("set_row_period", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(ticks))
	})
}

func (c *Client) SetAnalogThreshold(v uint16) error {
	return c.Send("set_analog_threshold", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(v))
	})
}

func (c *Client) SetDebounce(samples uint8) error {
	return c.Send("set_debounce", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(samples))
	})
}

// QueryInput consumes the console's latched events
func (c *Client) QueryInput() (InputState, error) {
	var s InputState
	payload, err := c.Query("query_input", noArgs, "input_state")
	if err != nil {
		return s, err
	}
	var pressed, held, analog uint32
	if err := decode(&payload, &pressed, &held, &analog); err != nil {
		return s, err
	}
	return InputState{Pressed: uint8(pressed), Held: uint8(held), Analog: uint16(analog)}, nil
}

func (c *Client) Beep(ticks uint32) error {
	return c.Send("beep", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, ticks)
	})
}

func (c *Client) SetLED(on bool) error {
	return c.Send("set_led", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQBool(output, on)
	})
}

func (c *Client) Status() (Status, error) {
	var s Status
	payload, err := c.Query("get_status", noArgs, "status")
	if err != nil {
		return s, err
	}
	var period, ticks, faults uint32
	if err := decode(&payload, &period, &ticks, &faults); err != nil {
		return s, err
	}
	return Status{RowPeriod: uint16(period), Ticks: ticks, Faults: faults}, nil
}

func decode(data *[]byte, args ...*uint32) error {
	for _, a := range args {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*a = v
	}
	return nil
}

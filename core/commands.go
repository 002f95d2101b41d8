package core

import (
	"errors"

	"gamer/protocol"
)

var (
	ErrFrameSize  = errors.New("frame must be 8 bytes")
	ErrPixelRange = errors.New("pixel coordinate out of range")
	ErrArgRange   = errors.New("argument out of range")
)

// identifyChunkMax caps one identify_response so it fits in a block
const identifyChunkMax = 40

// InitConsoleCommands registers the console's link commands on the global
// registry and publishes its constants in the global dictionary.
func InitConsoleCommands(c *Console) {
	RegisterConsoleCommands(globalRegistry, globalDictionary, c)
}

// RegisterConsoleCommands binds the link command set to c.
// identify_response and identify must keep IDs 0 and 1: hosts bootstrap
// from them before they have the dictionary.
func RegisterConsoleCommands(r *CommandRegistry, d *Dictionary, c *Console) {
	h := &linkHandlers{reg: r, dict: d, c: c}

	r.Register("identify_response", "offset=%u data=%*s", nil) // ID 0
	r.Register("identify", "offset=%u count=%c", h.identify)   // ID 1

	r.Register("load_frame", "lines=%*s", h.loadFrame)
	r.Register("set_pixel", "x=%c y=%c value=%c", h.setPixel)
	r.Register("commit_frame", "", h.commitFrame)
	r.Register("clear_display", "", h.clearDisplay)
	r.Register("fill_display", "", h.fillDisplay)
	r.Register("get_frame", "", h.getFrame)
	r.Register("set_row_period", "ticks=%hu", h.setRowPeriod)
	r.Register("set_analog_threshold", "value=%hu", h.setAnalogThreshold)
	r.Register("set_debounce", "samples=%c", h.setDebounce)
	r.Register("query_input", "", h.queryInput)
	r.Register("beep", "ticks=%u", h.beep)
	r.Register("set_led", "value=%c", h.setLED)
	r.Register("get_status", "", h.getStatus)

	r.Register("frame", "lines=%*s", nil)
	r.Register("input_state", "pressed=%c held=%c analog=%hu", nil)
	r.Register("status", "row_period=%hu ticks=%u faults=%u", nil)

	d.AddConstant("DISPLAY_SIZE", DisplaySize)
	d.AddConstant("ROW_PERIOD", c.RowPeriod())
	d.AddConstant("ANALOG_THRESHOLD", c.AnalogThreshold())
	names := make([]string, NumChannels)
	for ch := Channel(0); ch < NumChannels; ch++ {
		names[ch] = ch.String()
	}
	d.AddEnumeration("channel", names)
}

// linkHandlers holds what the command handlers act on
type linkHandlers struct {
	reg  *CommandRegistry
	dict *Dictionary
	c    *Console
}

func decodeArgs(data *[]byte, args ...*uint32) error {
	for _, a := range args {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*a = v
	}
	return nil
}

// identify returns one chunk of the data dictionary
func (h *linkHandlers) identify(data *[]byte) error {
	var offset, count uint32
	if err := decodeArgs(data, &offset, &count); err != nil {
		return err
	}
	if count > identifyChunkMax {
		count = identifyChunkMax
	}

	chunk := h.dict.GetChunk(offset, uint8(count))
	h.reg.Respond("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

// loadFrame replaces the working buffer and commits it. Byte y is scan
// line y and bit x is column x, bit 0 leftmost; images packed with bit 7
// leftmost must be bit-reversed first.
func (h *linkHandlers) loadFrame(data *[]byte) error {
	lines, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}
	if len(lines) != DisplaySize {
		return ErrFrameSize
	}
	var f Frame
	copy(f[:], lines)
	h.c.LoadFrame(f)
	return nil
}

// setPixel writes the working buffer only; commit_frame shows it.
// Link coordinates are rejected when out of range, not clipped.
func (h *linkHandlers) setPixel(data *[]byte) error {
	var x, y, value uint32
	if err := decodeArgs(data, &x, &y, &value); err != nil {
		return err
	}
	if x >= DisplaySize || y >= DisplaySize {
		return ErrPixelRange
	}
	h.c.SetPixel(int(x), int(y), value != 0)
	return nil
}

func (h *linkHandlers) commitFrame(data *[]byte) error {
	h.c.CommitFrame()
	return nil
}

func (h *linkHandlers) clearDisplay(data *[]byte) error {
	h.c.ClearAll()
	return nil
}

func (h *linkHandlers) fillDisplay(data *[]byte) error {
	h.c.FillAll()
	return nil
}

func (h *linkHandlers) getFrame(data *[]byte) error {
	f := h.c.Committed()
	h.reg.Respond("frame", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQBytes(output, f[:])
	})
	return nil
}

func (h *linkHandlers) setRowPeriod(data *[]byte) error {
	var ticks uint32
	if err := decodeArgs(data, &ticks); err != nil {
		return err
	}
	if ticks == 0 {
		return ErrRowPeriodZero
	}
	if ticks > 0xFFFF {
		return ErrArgRange
	}
	h.c.SetRowPeriod(uint16(ticks))
	return nil
}

func (h *linkHandlers) setAnalogThreshold(data *[]byte) error {
	var value uint32
	if err := decodeArgs(data, &value); err != nil {
		return err
	}
	if value > 0xFFFF {
		return ErrArgRange
	}
	h.c.SetAnalogThreshold(uint16(value))
	return nil
}

func (h *linkHandlers) setDebounce(data *[]byte) error {
	var samples uint32
	if err := decodeArgs(data, &samples); err != nil {
		return err
	}
	if samples == 0 {
		return ErrDebounceZero
	}
	if samples > 0xFF {
		return ErrArgRange
	}
	h.c.SetDebounceSamples(uint8(samples))
	return nil
}

// queryInput consumes every latched event and reports it with the held
// buttons and the current light level.
func (h *linkHandlers) queryInput(data *[]byte) error {
	pressed := h.c.ConsumeInputs()
	held := h.c.HeldInputs()
	analog := h.c.AnalogLevel()
	h.reg.Respond("input_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(pressed))
		protocol.EncodeVLQUint(output, uint32(held))
		protocol.EncodeVLQUint(output, uint32(analog))
	})
	return nil
}

func (h *linkHandlers) beep(data *[]byte) error {
	var ticks uint32
	if err := decodeArgs(data, &ticks); err != nil {
		return err
	}
	h.c.Beep(ticks)
	return nil
}

func (h *linkHandlers) setLED(data *[]byte) error {
	var value uint32
	if err := decodeArgs(data, &value); err != nil {
		return err
	}
	h.c.SetLED(value != 0)
	return nil
}

func (h *linkHandlers) getStatus(data *[]byte) error {
	period := h.c.RowPeriod()
	ticks := h.c.Ticks()
	faults := h.c.Faults()
	h.reg.Respond("status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(period))
		protocol.EncodeVLQUint(output, ticks)
		protocol.EncodeVLQUint(output, faults)
	})
	return nil
}

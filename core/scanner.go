package core

// ScanState is the row scanner position. Mask always has exactly one bit
// set; it starts at 0x80 for line 0 and rotates right.
type ScanState struct {
	Index uint8
	Mask  byte
}

// initialScanState is the position after reset
var initialScanState = ScanState{Index: 0, Mask: 0x80}

// RowScanner shows one committed scan line per call, cycling through all
// eight lines. Interrupt context only.
type RowScanner struct {
	bus      ScanBus
	frames   *FrameStore
	state    ScanState
	blanking bool
}

// NewRowScanner creates a scanner positioned on line 0
func NewRowScanner(bus ScanBus, frames *FrameStore) *RowScanner {
	return &RowScanner{
		bus:    bus,
		frames: frames,
		state:  initialScanState,
	}
}

// SetBlanking makes every advance clear the row register before the new
// column data goes out, so the old row is dark while the sink reloads.
// Adds a third transfer per advance.
func (r *RowScanner) SetBlanking(enabled bool) {
	r.blanking = enabled
}

// AdvanceRow sends the current line's column bits, then its row mask, then
// moves to the next line.
func (r *RowScanner) AdvanceRow() {
	if r.blanking {
		r.bus.SendRowSelect(0)
	}

	r.bus.SendColumnData(r.frames.Line(r.state.Index))
	r.bus.SendRowSelect(r.state.Mask)

	RecordTiming(EvtRowAdvance, r.state.Index, 0, uint32(r.state.Mask), 0)

	r.state.Index = (r.state.Index + 1) & (DisplaySize - 1)
	if r.state.Mask == 0x01 {
		r.state.Mask = 0x80
	} else {
		r.state.Mask >>= 1
	}
}

// State returns the current scan position
func (r *RowScanner) State() ScanState {
	return r.state
}

// Reset returns the scanner to line 0
func (r *RowScanner) Reset() {
	r.state = initialScanState
}

// Package sim models the console hardware on the host. A Board stands in
// for both the GPIO and ADC drivers: it decodes the bit-banged display bus
// into the two driver chips' registers and serves virtual buttons and a
// virtual light sensor to the input sampler.
//
//	TLC5916 column sink: rising ColumnClock shifts Data in, Latch high
//	                     copies the shift register, OE low enables sinks
//	MIC5891 row select:  rising RowClock shifts Data in, Latch high
//	                     copies the shift register
//
// Bytes are sent least-significant bit first, so after eight clocks the
// first bit sits in bit 0 and each register holds the byte as sent.
// Column sink output n drives column n; row select bit 7 drives line 0.
package sim

import (
	"errors"
	"sync"

	"gamer/core"
)

// MaxPin bounds the pin numbers a Board accepts
const MaxPin core.GPIOPin = 64

var (
	ErrInvalidPin     = errors.New("sim: pin out of range")
	ErrInvalidChannel = errors.New("sim: no such ADC channel")
)

type pinMode uint8

const (
	modeUnused pinMode = iota
	modeOutput
	modePullUp
	modePullDown
)

// Board is a simulated console. It is safe for concurrent use.
type Board struct {
	mu     sync.Mutex
	cfg    core.Config
	modes  [MaxPin]pinMode
	levels [MaxPin]bool
	held   [core.NumChannels]bool
	light  map[core.ADCChannelID]core.ADCValue

	colShift, colLatch byte
	rowShift, rowLatch byte

	seen    core.Frame
	clocks  uint32
	latches uint32
}

// NewBoard wires a board the way cfg describes. The light sensor starts
// dark (reading 0).
func NewBoard(cfg core.Config) *Board {
	b := &Board{cfg: cfg, light: make(map[core.ADCChannelID]core.ADCValue)}
	for ch := core.Channel(0); ch < core.NumChannels; ch++ {
		if in := cfg.Inputs[ch]; in.IsAnalog() {
			b.light[in.ADC] = 0
		}
	}
	return b
}

func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	return b.configure(pin, modeOutput)
}

func (b *Board) ConfigureInputPullUp(pin core.GPIOPin) error {
	return b.configure(pin, modePullUp)
}

func (b *Board) ConfigureInputPullDown(pin core.GPIOPin) error {
	return b.configure(pin, modePullDown)
}

func (b *Board) configure(pin core.GPIOPin, mode pinMode) error {
	if pin >= MaxPin {
		return ErrInvalidPin
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = mode
	return nil
}

// SetPin drives an output and clocks the driver chips on their edges
func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= MaxPin {
		return ErrInvalidPin
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.levels[pin]
	b.levels[pin] = value
	if prev || !value {
		return nil
	}

	bus := b.cfg.Bus
	data := byte(0)
	if b.levels[bus.Data] {
		data = 0x80
	}
	switch pin {
	case bus.ColumnClock:
		b.colShift = b.colShift>>1 | data
		b.clocks++
	case bus.RowClock:
		b.rowShift = b.rowShift>>1 | data
		b.clocks++
	case bus.Latch:
		b.colLatch = b.colShift
		b.rowLatch = b.rowShift
		b.latches++
	}
	return nil
}

func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= MaxPin {
		return false, ErrInvalidPin
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level(pin), nil
}

func (b *Board) ReadPin(pin core.GPIOPin) bool {
	v, _ := b.GetPin(pin)
	return v
}

// level returns what the pin reads: driven outputs read back, inputs see
// a held button as its active level and otherwise float to their pull.
func (b *Board) level(pin core.GPIOPin) bool {
	switch b.modes[pin] {
	case modeOutput:
		return b.levels[pin]
	case modePullUp, modePullDown:
		idle := b.modes[pin] == modePullUp
		for ch := core.Channel(0); ch < core.NumChannels; ch++ {
			in := b.cfg.Inputs[ch]
			if !in.IsAnalog() && in.Pin == pin && b.held[ch] {
				return !in.ActiveLow
			}
		}
		return idle
	}
	return false
}

func (b *Board) ConfigureChannel(ch core.ADCChannelID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.light[ch]; !ok {
		return ErrInvalidChannel
	}
	return nil
}

func (b *Board) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.light[ch]
	if !ok {
		return 0, ErrInvalidChannel
	}
	return v, nil
}

// Press holds a digital button down
func (b *Board) Press(ch core.Channel) {
	b.setHeld(ch, true)
}

// Release lets a digital button go
func (b *Board) Release(ch core.Channel) {
	b.setHeld(ch, false)
}

func (b *Board) setHeld(ch core.Channel, held bool) {
	if !ch.Valid() {
		return
	}
	b.mu.Lock()
	b.held[ch] = held
	b.mu.Unlock()
}

// SetLight sets the reading of every analog channel
func (b *Board) SetLight(v core.ADCValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.light {
		b.light[ch] = v
	}
}

// Lit returns the pixels the matrix shows right now
func (b *Board) Lit() core.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible()
}

func (b *Board) visible() core.Frame {
	var f core.Frame
	if b.levels[b.cfg.Bus.OutputEnable] {
		return f
	}
	for bit := 0; bit < core.DisplaySize; bit++ {
		if b.rowLatch&(1<<uint(bit)) != 0 {
			f[core.DisplaySize-1-bit] |= b.colLatch
		}
	}
	return f
}

// Capture adds the current lit pixels to the persistence image. Call it
// after every interrupt.
func (b *Board) Capture() {
	b.mu.Lock()
	defer b.mu.Unlock()
	lit := b.visible()
	for i := range b.seen {
		b.seen[i] |= lit[i]
	}
}

// Frame returns every pixel lit since the previous call, as the eye would
// integrate a full scan, and starts a new accumulation.
func (b *Board) Frame() core.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.seen
	b.seen = core.Frame{}
	return f
}

// Registers returns the latched column and row-select bytes
func (b *Board) Registers() (columns, rows byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.colLatch, b.rowLatch
}

// Pin returns the driven level of an output, for the LED and buzzer
func (b *Board) Pin(pin core.GPIOPin) bool {
	if pin >= MaxPin {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[pin]
}

// Counters returns the clock edges and latch strobes seen so far
func (b *Board) Counters() (clocks, latches uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clocks, b.latches
}

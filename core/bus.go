// Display bus: two daisy-chained driver chips sharing one data line, one
// latch line and one output-enable line, each with its own clock.
//
//	column sink (TLC5916): ColumnClock, outputs gated by OutputEnable (active low)
//	row select  (MIC5891): RowClock
//
// Both chips take their bits least-significant first.
package core

import "sync/atomic"

// BusPins names the five driver-control lines
type BusPins struct {
	Data         GPIOPin // DAT, shared by both chips
	Latch        GPIOPin // LAT, shared by both chips
	OutputEnable GPIOPin // OE, blanks the column sink while high
	ColumnClock  GPIOPin // CLK1, constant-current column sink
	RowClock     GPIOPin // CLK2, row-select shift register
}

// ScanBus is the transfer interface the row scanner drives from interrupt
// context. Transfers have no failure mode visible to the caller.
type ScanBus interface {
	// SendColumnData shifts one byte into the column sink with its outputs blanked
	SendColumnData(v byte)

	// SendRowSelect shifts one byte into the row-select register
	SendRowSelect(v byte)
}

// Bus bit-bangs both transfer formats over a GPIODriver
type Bus struct {
	gpio   GPIODriver
	pins   BusPins
	faults atomic.Uint32
}

// NewBus creates a bus on the given pins. Call Configure before the tick
// source starts.
func NewBus(gpio GPIODriver, pins BusPins) *Bus {
	return &Bus{gpio: gpio, pins: pins}
}

// Configure drives all control lines as outputs, with the column sink
// blanked and the latch low.
func (b *Bus) Configure() error {
	for _, pin := range []GPIOPin{b.pins.Data, b.pins.Latch, b.pins.OutputEnable, b.pins.ColumnClock, b.pins.RowClock} {
		if err := b.gpio.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	if err := b.gpio.SetPin(b.pins.OutputEnable, true); err != nil {
		return err
	}
	if err := b.gpio.SetPin(b.pins.Latch, false); err != nil {
		return err
	}
	if err := b.gpio.SetPin(b.pins.ColumnClock, false); err != nil {
		return err
	}
	return b.gpio.SetPin(b.pins.RowClock, false)
}

// SendColumnData writes to the TLC5916 column sink.
// Outputs stay disabled while bits are shifted so a half-loaded byte is
// never shown on the active row.
func (b *Bus) SendColumnData(v byte) {
	b.write(b.pins.OutputEnable, true)

	for bit := uint(0); bit < 8; bit++ {
		b.write(b.pins.ColumnClock, false)
		b.write(b.pins.Data, v&(1<<bit) != 0)
		b.write(b.pins.ColumnClock, true)
	}

	b.write(b.pins.Latch, true)
	b.write(b.pins.Latch, false)
	b.write(b.pins.OutputEnable, false)
}

// SendRowSelect writes to the MIC5891 row-select register
func (b *Bus) SendRowSelect(v byte) {
	b.write(b.pins.Latch, false)

	for bit := uint(0); bit < 8; bit++ {
		b.write(b.pins.Data, v&(1<<bit) != 0)
		b.write(b.pins.RowClock, true)
		b.write(b.pins.RowClock, false)
	}

	b.write(b.pins.Latch, true)
	b.write(b.pins.Latch, false)
}

// Faults returns the number of pin writes the driver rejected
func (b *Bus) Faults() uint32 {
	return b.faults.Load()
}

// write sets one line; a rejected write is counted, never propagated,
// so the transfer keeps its fixed length.
func (b *Bus) write(pin GPIOPin, value bool) {
	if err := b.gpio.SetPin(pin, value); err != nil {
		b.faults.Add(1)
	}
}

//go:build rp2040 || rp2350

// Package pio offloads the display bus to an RP2040 PIO state machine.
// One 32-bit FIFO word carries a whole row update:
//
//	bits 0-7:   column byte for the TLC5916, shifted LSB first
//	bits 8-15:  row-select byte for the MIC5891, shifted LSB first
//
// The state machine drives DAT with OUT and the four control lines with
// SET, so they must sit on consecutive GPIOs: CLK1, CLK2, LAT, OE.
package pio

import (
	"errors"
	"machine"

	"gamer/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var ErrPinOrder = errors.New("pio: CLK1, CLK2, LAT, OE must be consecutive GPIOs")

// SET pin values, bit 0 = CLK1
const (
	setCLK1 = 1 << 0
	setCLK2 = 1 << 1
	setLAT  = 1 << 2
	setOE   = 1 << 3
)

const scanBusOrigin = 0 // jumps below are absolute

// buildScanBusProgram mirrors core.Bus: OE high while the column byte is
// shifted, latch, OE low, then the row byte and a second latch.
func buildScanBusProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),              // 0: pull block
		asm.Set(rp2pio.SetDestPins, setOE).Encode(), // 1: blank the sinks
		asm.Set(rp2pio.SetDestX, 7).Encode(),        // 2: x = 7
		// column_bit:
		asm.Out(rp2pio.OutDestPins, 1).Encode(),             // 3: DAT
		asm.Set(rp2pio.SetDestPins, setOE|setCLK1).Encode(), // 4: CLK1 rising edge
		asm.Set(rp2pio.SetDestPins, setOE).Encode(),         // 5: CLK1 low
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),            // 6: jmp x--, column_bit
		asm.Set(rp2pio.SetDestPins, setOE|setLAT).Encode(),  // 7: latch
		asm.Set(rp2pio.SetDestPins, 0).Encode(),             // 8: latch low, sinks on
		asm.Set(rp2pio.SetDestX, 7).Encode(),                // 9: x = 7
		// row_bit:
		asm.Out(rp2pio.OutDestPins, 1).Encode(),      // 10: DAT
		asm.Set(rp2pio.SetDestPins, setCLK2).Encode(), // 11: CLK2 rising edge
		asm.Set(rp2pio.SetDestPins, 0).Encode(),       // 12: CLK2 low
		asm.Jmp(10, rp2pio.JmpXNZeroDec).Encode(),     // 13: jmp x--, row_bit
		asm.Set(rp2pio.SetDestPins, setLAT).Encode(),  // 14: latch
		asm.Set(rp2pio.SetDestPins, 0).Encode(),       // 15: latch low
		// .wrap
	}
}

// ScanBus implements core.ScanBus on a PIO state machine. The column byte
// is held until SendRowSelect, which queues the pair as one word.
type ScanBus struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pins   core.BusPins
	column byte
	offset uint8
}

// NewScanBus uses state machine smNum of PIO block pioNum (0 or 1)
func NewScanBus(pioNum, smNum uint8, pins core.BusPins) *ScanBus {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &ScanBus{
		pio:  pioHW,
		sm:   pioHW.StateMachine(smNum),
		pins: pins,
	}
}

// Configure loads the program and starts the state machine with the
// column sink blanked. The console calls it before the tick source starts.
func (b *ScanBus) Configure() error {
	p := b.pins
	if p.RowClock != p.ColumnClock+1 || p.Latch != p.ColumnClock+2 || p.OutputEnable != p.ColumnClock+3 {
		return ErrPinOrder
	}
	dataPin := machine.Pin(p.Data)
	setBase := machine.Pin(p.ColumnClock)

	b.sm.TryClaim()

	program := buildScanBusProgram()
	offset, err := b.pio.AddProgram(program, scanBusOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	dataPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	for i := machine.Pin(0); i < 4; i++ {
		(setBase + i).Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(dataPin, 1)
	cfg.SetSetPins(setBase, 4)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 125 MHz / 25: 200 ns per instruction, about 8 µs per word
	cfg.SetClkDivIntFrac(25, 0)

	b.sm.Init(offset, cfg)

	b.sm.SetPindirsConsecutive(dataPin, 1, true)
	b.sm.SetPindirsConsecutive(setBase, 4, true)
	b.sm.SetPinsConsecutive(dataPin, 1, false)
	b.sm.SetPinsConsecutive(setBase, 4, false)
	b.sm.SetPinsConsecutive(machine.Pin(p.OutputEnable), 1, true)

	b.sm.SetEnabled(true)
	return nil
}

// SendColumnData stages the column byte for the next row word
func (b *ScanBus) SendColumnData(v byte) {
	b.column = v
}

// SendRowSelect queues the staged column byte with the row byte. The FIFO
// holds four words and the scanner queues one per row period, so the wait
// never spins in practice.
func (b *ScanBus) SendRowSelect(v byte) {
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(uint32(b.column) | uint32(v)<<8)
}

// Stop halts the state machine and drops queued words
func (b *ScanBus) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
}

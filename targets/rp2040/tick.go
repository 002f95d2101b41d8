//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"gamer/core"
)

// Timer peripheral; the runtime owns alarm 0, the display tick uses alarm 1
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14
	timerTIMERAWL = timerBase + 0x28
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38

	alarm1Bit = 1 << 1
)

// tickPeriodUs gives 38.5 kHz, the Arduino board's Timer2 rate
const tickPeriodUs = 26

var (
	timerAlarm1 = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	timerRawL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))

	nextAlarm uint32
)

// StartTick arms alarm 1 and runs core.HandleInterrupt on every expiry.
// The next deadline is advanced from the previous one, not from now, so
// a late interrupt does not stretch the period.
func StartTick() {
	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		timerIntr.Set(alarm1Bit)
		nextAlarm += tickPeriodUs
		timerAlarm1.Set(nextAlarm)
		core.HandleInterrupt()
	})

	timerInte.SetBits(alarm1Bit)
	nextAlarm = timerRawL.Get() + tickPeriodUs
	timerAlarm1.Set(nextAlarm)
	intr.Enable()
}

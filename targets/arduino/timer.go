//go:build avr

package main

import (
	"device/avr"
	"runtime/interrupt"

	"gamer/core"
)

// Timer2 in fast PWM mode 7: TOP = OCR2A = 51, clk/8, so compare B fires at
// 16 MHz / 8 / 52 = 38461 Hz. OC2B (D3) carries the PWM output.
const (
	tccr2aCOM2B1 = 1 << 5
	tccr2aWGM21  = 1 << 1
	tccr2aWGM20  = 1 << 0
	tccr2bWGM22  = 1 << 3
	tccr2bCS21   = 1 << 1
	timsk2OCIE2B = 1 << 2

	timer2Top     = 51
	timer2Compare = 26

	TickFreq = 16000000 / 8 / (timer2Top + 1)
)

// StartTick programs Timer2 and runs core.HandleInterrupt on every
// compare-B match.
func StartTick() {
	interrupt.New(avr.IRQ_TIMER2_COMPB, func(interrupt.Interrupt) {
		core.HandleInterrupt()
	})

	avr.TCCR2A.Set(tccr2aCOM2B1 | tccr2aWGM21 | tccr2aWGM20)
	avr.TCCR2B.Set(tccr2bWGM22 | tccr2bCS21)
	avr.OCR2A.Set(timer2Top)
	avr.OCR2B.Set(timer2Compare)
	avr.TIMSK2.Set(timsk2OCIE2B)
}

//go:build avr

package main

import (
	"errors"
	"machine"

	"gamer/core"
)

var errPinRange = errors.New("Arduino Uno has pins 0-19")

// unoPins maps Arduino pin numbers to ports: D0-D13, then A0-A5 as 14-19
var unoPins = [20]machine.Pin{
	machine.D0, machine.D1, machine.D2, machine.D3, machine.D4,
	machine.D5, machine.D6, machine.D7, machine.D8, machine.D9,
	machine.D10, machine.D11, machine.D12, machine.D13,
	machine.ADC0, machine.ADC1, machine.ADC2, machine.ADC3, machine.ADC4, machine.ADC5,
}

// UnoGPIODriver implements core.GPIODriver with Arduino pin numbering
type UnoGPIODriver struct{}

func (UnoGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= core.GPIOPin(len(unoPins)) {
		return errPinRange
	}
	unoPins[pin].Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (d UnoGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d UnoGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

// ConfigureInputPullDown falls back to a floating input; the ATmega328p
// has no pull-downs.
func (d UnoGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInput)
}

func (UnoGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= core.GPIOPin(len(unoPins)) {
		return errPinRange
	}
	unoPins[pin].Set(value)
	return nil
}

func (UnoGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= core.GPIOPin(len(unoPins)) {
		return false, errPinRange
	}
	return unoPins[pin].Get(), nil
}

func (UnoGPIODriver) ReadPin(pin core.GPIOPin) bool {
	if pin >= core.GPIOPin(len(unoPins)) {
		return false
	}
	return unoPins[pin].Get()
}

var errADCChannel = errors.New("Arduino Uno has ADC0-ADC5")

// UnoADCDriver implements core.ADCDriver with 10-bit readings
type UnoADCDriver struct {
	channels [6]machine.ADC
}

func NewUnoADCDriver() *UnoADCDriver {
	machine.InitADC()
	return &UnoADCDriver{}
}

func (d *UnoADCDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if ch > 5 {
		return errADCChannel
	}
	d.channels[ch] = machine.ADC{Pin: unoPins[14+int(ch)]}
	return d.channels[ch].Configure(machine.ADCConfig{})
}

func (d *UnoADCDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch > 5 {
		return 0, errADCChannel
	}
	// Get scales to 16 bits
	return core.ADCValue(d.channels[ch].Get() >> 6), nil
}

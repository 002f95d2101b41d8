//go:build rp2040

package main

import (
	"errors"
	"machine"

	"gamer/core"
)

var errPinRange = errors.New("RP2040 has GPIO0-GPIO29")

// RPGPIODriver implements core.GPIODriver; RP2040 pins map directly to
// GPIO numbers.
type RPGPIODriver struct {
	configured [30]bool
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= 30 {
		return errPinRange
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
	d.configured[pin] = true
	return nil
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= 30 || !d.configured[pin] {
		return errPinRange
	}
	machine.Pin(pin).Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= 30 || !d.configured[pin] {
		return false, errPinRange
	}
	return machine.Pin(pin).Get(), nil
}

func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	value, _ := d.GetPin(pin)
	return value
}

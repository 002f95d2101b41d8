//go:build linux && !tinygo

package main

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"gamer/core"
)

// PeriphGPIO implements core.GPIODriver on BCM pin numbers through periph
type PeriphGPIO struct {
	mu   sync.RWMutex
	pins map[core.GPIOPin]gpio.PinIO
}

func NewPeriphGPIO() *PeriphGPIO {
	return &PeriphGPIO{pins: make(map[core.GPIOPin]gpio.PinIO)}
}

func (d *PeriphGPIO) lookup(pin core.GPIOPin) (gpio.PinIO, error) {
	d.mu.RLock()
	p, ok := d.pins[pin]
	d.mu.RUnlock()
	if ok {
		return p, nil
	}

	p = gpioreg.ByName("GPIO" + strconv.Itoa(int(pin)))
	if p == nil {
		return nil, fmt.Errorf("no such pin GPIO%d", pin)
	}
	d.mu.Lock()
	d.pins[pin] = p
	d.mu.Unlock()
	return p, nil
}

func (d *PeriphGPIO) ConfigureOutput(pin core.GPIOPin) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}

func (d *PeriphGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	return p.In(gpio.PullUp, gpio.NoEdge)
}

func (d *PeriphGPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	return p.In(gpio.PullDown, gpio.NoEdge)
}

func (d *PeriphGPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

func (d *PeriphGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := d.lookup(pin)
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

func (d *PeriphGPIO) ReadPin(pin core.GPIOPin) bool {
	v, _ := d.GetPin(pin)
	return v
}

//go:build linux && !tinygo

package main

import (
	"errors"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"gamer/core"
)

var errADCChannel = errors.New("ADS1115 has channels 0-3")

// LightADC reads the light sensor from an ADS1115 on I2C. A conversion
// takes about a millisecond, too long for the tick goroutine, so a poller
// keeps the latest reading and ReadRaw returns it.
type LightADC struct {
	dev    *ads1x15.Dev
	pins   [4]analog.PinADC
	latest [4]atomic.Uint32
	failed [4]atomic.Bool
	stop   chan struct{}
}

// NewLightADC opens the converter at its default address
func NewLightADC(bus i2c.Bus) (*LightADC, error) {
	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return nil, err
	}
	return &LightADC{dev: dev, stop: make(chan struct{})}, nil
}

func (a *LightADC) ConfigureChannel(ch core.ADCChannelID) error {
	if ch > 3 {
		return errADCChannel
	}
	if a.pins[ch] != nil {
		return nil
	}
	channels := [4]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	pin, err := a.dev.PinForChannel(channels[ch], 3300*physic.MilliVolt, 500*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return err
	}
	a.pins[ch] = pin
	a.poll(ch)
	return nil
}

// ReadRaw returns the latest reading scaled to 10 bits
func (a *LightADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch > 3 || a.pins[ch] == nil {
		return 0, errADCChannel
	}
	if a.failed[ch].Load() {
		return 0, errors.New("ADS1115 read failed")
	}
	return core.ADCValue(a.latest[ch].Load()), nil
}

func (a *LightADC) poll(ch core.ADCChannelID) {
	read := func() {
		s, err := a.pins[ch].Read()
		a.failed[ch].Store(err != nil)
		if err != nil {
			return
		}
		raw := s.Raw
		if raw < 0 {
			raw = 0
		}
		a.latest[ch].Store(uint32(raw >> 5))
	}
	read()

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				read()
			}
		}
	}()
}

// Halt stops the pollers
func (a *LightADC) Halt() error {
	close(a.stop)
	for _, p := range a.pins {
		if p != nil {
			p.Halt()
		}
	}
	return nil
}

//go:build rp2040

package main

import (
	"errors"
	"machine"

	"gamer/core"
)

var errADCChannel = errors.New("unsupported ADC channel")

// RPADCDriver implements core.ADCDriver using TinyGo's machine.ADC.
// Readings are 12-bit (0-4095); thresholds use the same units.
type RPADCDriver struct {
	channels [4]*machine.ADC
}

// NewRPADCDriver initializes the ADC block
func NewRPADCDriver() *RPADCDriver {
	machine.InitADC()
	return &RPADCDriver{}
}

// ConfigureChannel sets up external channel 0-3 (GP26-GP29)
func (d *RPADCDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if ch > 3 {
		return errADCChannel
	}
	if d.channels[ch] != nil {
		return nil
	}

	pins := [4]machine.Pin{machine.ADC0, machine.ADC1, machine.ADC2, machine.ADC3}
	adc := &machine.ADC{Pin: pins[ch]}
	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = adc
	return nil
}

// ReadRaw samples a configured channel. Called from the tick interrupt,
// so it never configures on demand.
func (d *RPADCDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch > 3 || d.channels[ch] == nil {
		return 0, errADCChannel
	}
	// Get scales to 16 bits
	return core.ADCValue(d.channels[ch].Get() >> 4), nil
}

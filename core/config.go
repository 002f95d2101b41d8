package core

import "errors"

var (
	ErrRowPeriodZero = errors.New("row period must be at least 1 tick")
	ErrDebounceZero  = errors.New("debounce needs at least 1 sample")
	ErrPinConflict   = errors.New("pin assigned twice")
)

// Default timing of the Arduino build
const (
	DefaultRowPeriod       = 50  // ticks per scan line at the ~38.4 kHz tick
	DefaultAnalogThreshold = 300 // 10-bit ADC counts
	DefaultDebounceSamples = 1
)

// Arduino Uno pin numbers of the reference board
const (
	arduinoCLK1   GPIOPin = 6
	arduinoCLK2   GPIOPin = 7
	arduinoDAT    GPIOPin = 8
	arduinoLAT    GPIOPin = 9
	arduinoOE     GPIOPin = 10
	arduinoLED    GPIOPin = 13
	arduinoBuzzer GPIOPin = 2
	arduinoA0     GPIOPin = 14
	arduinoLDRADC         = 5
)

// PinConflictError names the two functions sharing a pin
type PinConflictError struct {
	Pin           GPIOPin
	First, Second string
}

func (e *PinConflictError) Error() string {
	return ErrPinConflict.Error() + ": " + utoa(uint32(e.Pin)) + " (" + e.First + ", " + e.Second + ")"
}

func (e *PinConflictError) Unwrap() error {
	return ErrPinConflict
}

// Config is everything a target has to decide before the tick source starts
type Config struct {
	Bus    BusPins
	Inputs [NumChannels]ChannelConfig
	LED    GPIOPin // NoPin if not fitted
	Buzzer GPIOPin // NoPin if not fitted or driven by SetBuzzerOutput

	RowPeriod       uint16 // ticks between row advances
	DebounceSamples uint8  // consecutive samples before a button level is accepted
	Blanking        bool   // clear the row register before each column load
}

// DefaultConfig returns the pin map and timing of the Arduino Uno board:
// buttons on A0..A4 (active low, pulled up), light sensor on A5.
func DefaultConfig() Config {
	cfg := Config{
		Bus: BusPins{
			Data:         arduinoDAT,
			Latch:        arduinoLAT,
			OutputEnable: arduinoOE,
			ColumnClock:  arduinoCLK1,
			RowClock:     arduinoCLK2,
		},
		LED:             arduinoLED,
		Buzzer:          arduinoBuzzer,
		RowPeriod:       DefaultRowPeriod,
		DebounceSamples: DefaultDebounceSamples,
	}
	for ch := Up; ch <= Start; ch++ {
		cfg.Inputs[ch] = DigitalChannel(arduinoA0+GPIOPin(ch), true)
	}
	cfg.Inputs[LDR] = AnalogChannel(arduinoLDRADC, DefaultAnalogThreshold)
	return cfg
}

// Validate checks the configuration before any hardware is touched
func (c *Config) Validate() error {
	if c.RowPeriod == 0 {
		return ErrRowPeriodZero
	}
	if c.DebounceSamples == 0 {
		return ErrDebounceZero
	}

	used := make(map[GPIOPin]string)
	claim := func(pin GPIOPin, name string) error {
		if pin == NoPin {
			return nil
		}
		if prev, ok := used[pin]; ok {
			return &PinConflictError{Pin: pin, First: prev, Second: name}
		}
		used[pin] = name
		return nil
	}

	pins := []struct {
		pin  GPIOPin
		name string
	}{
		{c.Bus.Data, "DAT"},
		{c.Bus.Latch, "LAT"},
		{c.Bus.OutputEnable, "OE"},
		{c.Bus.ColumnClock, "CLK1"},
		{c.Bus.RowClock, "CLK2"},
		{c.LED, "LED"},
		{c.Buzzer, "BUZZER"},
	}
	for _, p := range pins {
		if err := claim(p.pin, p.name); err != nil {
			return err
		}
	}
	for ch := Channel(0); ch < NumChannels; ch++ {
		if c.Inputs[ch].IsAnalog() {
			continue
		}
		if err := claim(c.Inputs[ch].Pin, ch.String()); err != nil {
			return err
		}
	}
	return nil
}

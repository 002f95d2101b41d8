package core

import "errors"

// Channel names one logical input. The numbering is also the key code
// used on the host link (UP=0 .. LDR=5).
type Channel uint8

const (
	Up Channel = iota
	Left
	Right
	Down
	Start
	LDR

	NumChannels
)

// ErrInvalidChannel is returned for a channel outside the closed set
var ErrInvalidChannel = errors.New("invalid input channel")

var channelNames = [NumChannels]string{"UP", "LEFT", "RIGHT", "DOWN", "START", "LDR"}

func (c Channel) String() string {
	if c >= NumChannels {
		return "INVALID"
	}
	return channelNames[c]
}

// Valid reports whether c is one of the six channels
func (c Channel) Valid() bool {
	return c < NumChannels
}

type channelKind uint8

const (
	kindDigital channelKind = iota
	kindAnalog
)

// ChannelConfig describes how one channel is wired. Build it with
// DigitalChannel or AnalogChannel.
type ChannelConfig struct {
	kind      channelKind
	Pin       GPIOPin      // digital only
	ActiveLow bool         // digital only: pressed reads low
	ADC       ADCChannelID // analog only
	Threshold uint16       // analog only: rise that latches an event
}

// DigitalChannel is a button on a GPIO pin. Active-low buttons get the
// internal pull-up, active-high ones the pull-down.
func DigitalChannel(pin GPIOPin, activeLow bool) ChannelConfig {
	return ChannelConfig{kind: kindDigital, Pin: pin, ActiveLow: activeLow}
}

// AnalogChannel is a sensor on an ADC channel that latches an event when
// its reading rises by at least threshold between two samples.
func AnalogChannel(adc ADCChannelID, threshold uint16) ChannelConfig {
	return ChannelConfig{kind: kindAnalog, ADC: adc, Threshold: threshold}
}

// IsAnalog reports whether the channel is an analog sensor
func (c ChannelConfig) IsAnalog() bool {
	return c.kind == kindAnalog
}

// channelState is written by Sample (interrupt context). latched is
// cleared only by Consume, under a critical section.
type channelState struct {
	active    bool   // accepted level, true when pressed
	candidate bool   // level waiting to be accepted
	streak    uint8  // consecutive samples that read candidate
	value     uint16 // last analog reading
	latched   bool
}

// InputSampler polls the buttons and the light sensor once per row period
// and latches press events until the foreground consumes them.
type InputSampler struct {
	gpio     GPIODriver
	adc      ADCDriver
	configs  [NumChannels]ChannelConfig
	states   [NumChannels]channelState
	debounce uint8
	faults   uint32
}

// NewInputSampler creates a sampler. adc may be nil when no channel is analog.
func NewInputSampler(gpio GPIODriver, adc ADCDriver, configs [NumChannels]ChannelConfig) *InputSampler {
	return &InputSampler{
		gpio:     gpio,
		adc:      adc,
		configs:  configs,
		debounce: 1,
	}
}

// Configure sets up every input pin and ADC channel and seeds the stored
// levels from the hardware, so an input held at power-on is not reported
// as a press.
func (s *InputSampler) Configure() error {
	for ch := Channel(0); ch < NumChannels; ch++ {
		cfg := s.configs[ch]
		st := &s.states[ch]

		if cfg.IsAnalog() {
			if s.adc == nil {
				return errors.New("analog channel " + ch.String() + " without ADC driver")
			}
			if err := s.adc.ConfigureChannel(cfg.ADC); err != nil {
				return err
			}
			if v, err := s.adc.ReadRaw(cfg.ADC); err == nil {
				st.value = uint16(v)
			}
			continue
		}

		var err error
		if cfg.ActiveLow {
			err = s.gpio.ConfigureInputPullUp(cfg.Pin)
		} else {
			err = s.gpio.ConfigureInputPullDown(cfg.Pin)
		}
		if err != nil {
			return err
		}
		st.active = s.readActive(cfg)
		st.candidate = st.active
	}
	return nil
}

// SetDebounceSamples sets how many consecutive samples must agree before a
// new button level is accepted. 0 is treated as 1.
func (s *InputSampler) SetDebounceSamples(n uint8) {
	if n == 0 {
		n = 1
	}
	state := disableInterrupts()
	s.debounce = n
	restoreInterrupts(state)
}

// DebounceSamples returns the current debounce sample count
func (s *InputSampler) DebounceSamples() uint8 {
	return s.debounce
}

// SetThreshold changes the analog rise that latches an event
func (s *InputSampler) SetThreshold(v uint16) {
	state := disableInterrupts()
	for ch := range s.configs {
		if s.configs[ch].IsAnalog() {
			s.configs[ch].Threshold = v
		}
	}
	restoreInterrupts(state)
}

// Threshold returns the analog threshold of the first analog channel
func (s *InputSampler) Threshold() uint16 {
	for ch := range s.configs {
		if s.configs[ch].IsAnalog() {
			return s.configs[ch].Threshold
		}
	}
	return 0
}

func (s *InputSampler) readActive(cfg ChannelConfig) bool {
	return s.gpio.ReadPin(cfg.Pin) != cfg.ActiveLow
}

// Sample polls every channel once. Interrupt context.
func (s *InputSampler) Sample() {
	for ch := Channel(0); ch < NumChannels; ch++ {
		cfg := &s.configs[ch]
		st := &s.states[ch]

		if cfg.IsAnalog() {
			v, err := s.adc.ReadRaw(cfg.ADC)
			if err != nil {
				s.faults++
				continue
			}
			cur := int32(v)
			if cur-int32(st.value) >= int32(cfg.Threshold) {
				st.latched = true
				RecordTiming(EvtInputLatch, uint8(ch), 0, uint32(v), uint32(st.value))
			}
			st.value = uint16(v)
			continue
		}

		level := s.readActive(*cfg)
		if level == st.active {
			st.candidate = level
			st.streak = 0
			continue
		}
		if level != st.candidate || st.streak == 0 {
			st.candidate = level
			st.streak = 0
		}
		st.streak++
		if st.streak < s.debounce {
			continue
		}

		st.active = level
		st.streak = 0
		if level {
			st.latched = true
			RecordTiming(EvtInputLatch, uint8(ch), 0, 1, 0)
		}
	}

	var held, latched uint32
	for ch := Channel(0); ch < NumChannels; ch++ {
		if s.states[ch].active {
			held |= 1 << ch
		}
		if s.states[ch].latched {
			latched |= 1 << ch
		}
	}
	RecordTiming(EvtSample, 0, 0, held, latched)
}

// Consume returns the channel's latched event and clears it
func (s *InputSampler) Consume(ch Channel) bool {
	if !ch.Valid() {
		return false
	}
	state := disableInterrupts()
	pressed := s.states[ch].latched
	s.states[ch].latched = false
	restoreInterrupts(state)
	return pressed
}

// ConsumeAll consumes every channel and returns the events as a bit mask,
// bit n set for Channel(n).
func (s *InputSampler) ConsumeAll() uint8 {
	var mask uint8
	state := disableInterrupts()
	for ch := range s.states {
		if s.states[ch].latched {
			mask |= 1 << uint(ch)
			s.states[ch].latched = false
		}
	}
	restoreInterrupts(state)
	return mask
}

// IsActive reads a digital channel straight from the pin. Analog channels
// have no held state and always report false.
func (s *InputSampler) IsActive(ch Channel) bool {
	if !ch.Valid() || s.configs[ch].IsAnalog() {
		return false
	}
	return s.readActive(s.configs[ch])
}

// HeldMask returns IsActive for every channel as a bit mask
func (s *InputSampler) HeldMask() uint8 {
	var mask uint8
	for ch := Channel(0); ch < NumChannels; ch++ {
		if s.IsActive(ch) {
			mask |= 1 << uint(ch)
		}
	}
	return mask
}

// AnalogLevel reads the first analog channel directly from the ADC.
// Returns 0 when there is no analog channel or the read fails.
func (s *InputSampler) AnalogLevel() uint16 {
	for ch := range s.configs {
		if !s.configs[ch].IsAnalog() {
			continue
		}
		v, err := s.adc.ReadRaw(s.configs[ch].ADC)
		if err != nil {
			return 0
		}
		return uint16(v)
	}
	return 0
}

// Faults returns the number of ADC reads that failed during sampling
func (s *InputSampler) Faults() uint32 {
	state := disableInterrupts()
	n := s.faults
	restoreInterrupts(state)
	return n
}

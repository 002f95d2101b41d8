package core

import (
	"errors"

	"gamer/protocol"
)

type pinWrite struct {
	pin   GPIOPin
	value bool
}

// MockGPIODriver records every write. Pulled-up inputs idle high.
type MockGPIODriver struct {
	pins    map[GPIOPin]bool
	modes   map[GPIOPin]string
	writes  []pinWrite
	failPin GPIOPin
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		modes:   make(map[GPIOPin]string),
		failPin: NoPin,
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.modes[pin] = "out"
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.modes[pin] = "pullup"
	if _, set := m.pins[pin]; !set {
		m.pins[pin] = true
	}
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	m.modes[pin] = "pulldown"
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if pin == m.failPin {
		return errors.New("pin write rejected")
	}
	m.pins[pin] = value
	m.writes = append(m.writes, pinWrite{pin, value})
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	return m.pins[pin]
}

// clockedBits returns the data level at every rising edge of clock
func (m *MockGPIODriver) clockedBits(clock, data GPIOPin) []bool {
	var bits []bool
	level := map[GPIOPin]bool{}
	for _, w := range m.writes {
		if w.pin == clock && w.value && !level[clock] {
			bits = append(bits, level[data])
		}
		level[w.pin] = w.value
	}
	return bits
}

// MockADCDriver returns scripted readings, repeating the last one
type MockADCDriver struct {
	values     []ADCValue
	configured map[ADCChannelID]bool
	err        error
}

func NewMockADCDriver(values ...ADCValue) *MockADCDriver {
	return &MockADCDriver{values: values, configured: make(map[ADCChannelID]bool)}
}

func (m *MockADCDriver) ConfigureChannel(ch ADCChannelID) error {
	m.configured[ch] = true
	return nil
}

func (m *MockADCDriver) ReadRaw(ch ADCChannelID) (ADCValue, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.values) == 0 {
		return 0, nil
	}
	v := m.values[0]
	if len(m.values) > 1 {
		m.values = m.values[1:]
	}
	return v, nil
}

// recordingBus logs scanner transfers in order
type recordingBus struct {
	columns []byte
	rows    []byte
	order   []string
}

func (b *recordingBus) SendColumnData(v byte) {
	b.columns = append(b.columns, v)
	b.order = append(b.order, "col")
}

func (b *recordingBus) SendRowSelect(v byte) {
	b.rows = append(b.rows, v)
	b.order = append(b.order, "row")
}

// captureSender collects responses instead of framing them
type captureSender struct {
	ids  []uint16
	args [][]byte
}

func (s *captureSender) SendCommand(cmdID uint16, args func(output protocol.OutputBuffer)) {
	out := protocol.NewScratchOutput()
	if args != nil {
		args(out)
	}
	s.ids = append(s.ids, cmdID)
	s.args = append(s.args, append([]byte(nil), out.Result()...))
}

// testPins is a bus pin map that does not collide with DefaultConfig inputs
var testPins = BusPins{Data: 8, Latch: 9, OutputEnable: 10, ColumnClock: 6, RowClock: 7}

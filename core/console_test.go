package core

import (
	"errors"
	"image/color"
	"testing"
)

func newTestConsole(t *testing.T, period uint16, adcValues ...ADCValue) (*Console, *MockGPIODriver, *recordingBus) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RowPeriod = period
	gpio := NewMockGPIODriver()
	bus := &recordingBus{}
	if len(adcValues) == 0 {
		adcValues = []ADCValue{0}
	}
	c, err := NewWithBus(cfg, gpio, NewMockADCDriver(adcValues...), bus)
	if err != nil {
		t.Fatalf("NewWithBus failed: %v", err)
	}
	return c, gpio, bus
}

func TestConsoleEndToEndScan(t *testing.T) {
	c, _, bus := newTestConsole(t, 50)

	c.ClearAll()
	c.CommitFrame()
	for i := 0; i < 400; i++ {
		c.Interrupt()
	}

	if len(bus.columns) != 8 {
		t.Fatalf("Expected 8 column sends, got %d", len(bus.columns))
	}
	for i, v := range bus.columns {
		if v != 0 {
			t.Errorf("Column send %d: expected 0, got 0x%02X", i, v)
		}
	}
	want := []byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}
	for i := range want {
		if bus.rows[i] != want[i] {
			t.Errorf("Row send %d: expected 0x%02X, got 0x%02X", i, want[i], bus.rows[i])
		}
	}
	if c.Ticks() != 400 {
		t.Errorf("Expected 400 ticks, got %d", c.Ticks())
	}
}

func TestConsoleCommitIdempotent(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)

	c.SetPixel(1, 2, true)
	if !c.CommitFrame() {
		t.Fatal("Expected first commit to publish")
	}
	first := c.Committed()
	if c.CommitFrame() {
		t.Error("Second commit without changes should not publish")
	}
	if c.Committed() != first {
		t.Error("Committed frame changed without a pixel change")
	}
	if c.Commits() != 1 {
		t.Errorf("Expected 1 published commit, got %d", c.Commits())
	}
}

func TestConsoleWorkingBufferNotShownUntilCommit(t *testing.T) {
	c, _, bus := newTestConsole(t, 1)

	c.SetPixel(0, 0, true)
	c.Interrupt()
	if bus.columns[0] != 0 {
		t.Errorf("Uncommitted pixel shown: 0x%02X", bus.columns[0])
	}

	c.CommitFrame()
	for i := 0; i < 8; i++ {
		c.Interrupt()
	}
	// line 0 comes round again on the 9th advance
	if bus.columns[8] != 0x01 {
		t.Errorf("Expected committed pixel on line 0, got 0x%02X", bus.columns[8])
	}
}

func TestConsoleFillClearLoad(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)

	c.FillAll()
	if c.Committed() != (Frame{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("FillAll: got %s", FrameString(c.Committed()))
	}

	c.ClearAll()
	if c.Committed() != (Frame{}) {
		t.Errorf("ClearAll: got %s", FrameString(c.Committed()))
	}

	f := Frame{0x18, 0x3C, 0x7E, 0xFF, 0xFF, 0x7E, 0x3C, 0x18}
	c.LoadFrame(f)
	if c.Committed() != f {
		t.Errorf("LoadFrame: expected %s, got %s", FrameString(f), FrameString(c.Committed()))
	}
	if !c.Pixel(3, 0) || c.Pixel(0, 0) {
		t.Error("LoadFrame should also replace the working buffer")
	}
}

func TestConsoleOutOfRangePixelIgnored(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)
	c.SetPixel(8, 0, true)
	c.SetPixel(-1, 3, true)
	if c.CommitFrame() {
		t.Error("Out-of-range writes must not change the frame")
	}
}

func TestConsoleInput(t *testing.T) {
	c, gpio, _ := newTestConsole(t, 2, 0, 0, 500)

	// Up is on A0 (pin 14), active low
	gpio.pins[14] = false
	c.Interrupt() // sample at tick 1 (2/2)

	if !c.IsHeld(Up) {
		t.Error("Expected Up held")
	}
	if !c.WasPressed(Up) {
		t.Error("Expected Up press latched")
	}
	if c.WasPressed(Up) {
		t.Error("Press must be consumed once")
	}

	c.Interrupt()
	c.Interrupt() // second sample reads 500
	if !c.WasPressed(LDR) {
		t.Error("Expected light-sensor event after a rise of 500")
	}
	if c.IsHeld(LDR) {
		t.Error("LDR has no held state")
	}
}

func TestConsoleDebounceTicks(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)
	c.SetDebounceSamples(4)
	if c.DebounceTicks() != 200 {
		t.Errorf("Expected 4 x 50 = 200 debounce ticks, got %d", c.DebounceTicks())
	}
}

func TestConsoleAnalogThreshold(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)
	if c.AnalogThreshold() != DefaultAnalogThreshold {
		t.Errorf("Expected default threshold %d, got %d", DefaultAnalogThreshold, c.AnalogThreshold())
	}
	c.SetAnalogThreshold(120)
	if c.AnalogThreshold() != 120 {
		t.Errorf("Expected threshold 120, got %d", c.AnalogThreshold())
	}
}

func TestConsoleLED(t *testing.T) {
	c, gpio, _ := newTestConsole(t, 50)

	if gpio.modes[13] != "out" {
		t.Fatal("Expected LED pin configured as output")
	}
	c.SetLED(true)
	if !gpio.pins[13] || !c.LED() {
		t.Error("Expected LED on")
	}
	c.ToggleLED()
	if gpio.pins[13] {
		t.Error("Expected LED off after toggle")
	}
}

func TestConsoleBeep(t *testing.T) {
	c, gpio, _ := newTestConsole(t, 50)

	c.Beep(10)
	c.Update()
	if !gpio.pins[2] || !c.Buzzing() {
		t.Fatal("Expected buzzer pin high while beeping")
	}

	for i := 0; i < 10; i++ {
		c.Interrupt()
	}
	c.Update()
	if gpio.pins[2] || c.Buzzing() {
		t.Error("Expected buzzer off after 10 ticks")
	}
}

func TestConsoleRowPeriod(t *testing.T) {
	c, _, bus := newTestConsole(t, 50)

	c.SetRowPeriod(0)
	if c.RowPeriod() != 1 {
		t.Errorf("Expected period 0 clamped to 1, got %d", c.RowPeriod())
	}

	for i := 0; i < 53; i++ {
		c.Interrupt()
	}
	// one advance at 50 under the old period, then one per tick
	if len(bus.columns) != 4 {
		t.Errorf("Expected 4 advances, got %d", len(bus.columns))
	}
	if s := c.ScanState(); s.Index != 4 {
		t.Errorf("Expected scan index 4, got %d", s.Index)
	}
}

func TestHandleInterrupt(t *testing.T) {
	defer Install(nil)

	Install(nil)
	HandleInterrupt() // no console: nothing happens

	c, _, _ := newTestConsole(t, 50)
	Install(c)
	if Installed() != c {
		t.Fatal("Installed console not returned")
	}
	HandleInterrupt()
	HandleInterrupt()
	if c.Ticks() != 2 {
		t.Errorf("Expected 2 ticks routed to the installed console, got %d", c.Ticks())
	}
}

func TestConsoleDisplayer(t *testing.T) {
	c, _, _ := newTestConsole(t, 50)
	d := c.Displayer()

	if w, h := d.Size(); w != 8 || h != 8 {
		t.Errorf("Expected 8x8, got %dx%d", w, h)
	}

	d.SetPixel(2, 3, color.RGBA{R: 255, A: 255})
	d.SetPixel(4, 3, color.RGBA{A: 255}) // black is off
	d.SetPixel(9, 9, color.RGBA{G: 255, A: 255})
	if c.Committed() != (Frame{}) {
		t.Error("Displayer should not commit before Display")
	}
	if err := d.Display(); err != nil {
		t.Fatalf("Display failed: %v", err)
	}
	if c.Committed()[3] != 0x04 {
		t.Errorf("Expected line 3 = 0x04, got 0x%02X", c.Committed()[3])
	}
}

func TestNewConsoleErrors(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil); !errors.Is(err, ErrNoGPIO) {
		t.Errorf("Expected ErrNoGPIO, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.RowPeriod = 0
	if _, err := New(cfg, NewMockGPIODriver(), NewMockADCDriver(0)); !errors.Is(err, ErrRowPeriodZero) {
		t.Errorf("Expected ErrRowPeriodZero, got %v", err)
	}

	cfg = DefaultConfig()
	if _, err := New(cfg, NewMockGPIODriver(), nil); err == nil {
		t.Error("Expected an error for an analog channel without ADC driver")
	}
}

func TestNewConsoleBitBangBus(t *testing.T) {
	gpio := NewMockGPIODriver()
	c, err := New(DefaultConfig(), gpio, NewMockADCDriver(0))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if gpio.modes[10] != "out" || !gpio.pins[10] {
		t.Error("Expected OE configured and blanked")
	}

	c.FillAll()
	gpio.writes = nil
	for i := 0; i < DefaultRowPeriod; i++ {
		c.Interrupt()
	}
	bits := gpio.clockedBits(6, 8)
	if len(bits) != 8 {
		t.Fatalf("Expected 8 column clock edges, got %d", len(bits))
	}
	for i, b := range bits {
		if !b {
			t.Errorf("Column bit %d: expected lit", i)
		}
	}
	if c.Faults() != 0 {
		t.Errorf("Expected no faults, got %d", c.Faults())
	}
}

func TestConsoleLEDWriteFaultCounted(t *testing.T) {
	c, gpio, _ := newTestConsole(t, 50)
	gpio.failPin = DefaultConfig().LED

	c.SetLED(true)
	c.ToggleLED()
	if c.Faults() != 2 {
		t.Errorf("Expected 2 faults from rejected LED writes, got %d", c.Faults())
	}
	if c.LED() {
		t.Error("Expected LED state to track the last request")
	}

	gpio.failPin = NoPin
	c.SetLED(true)
	if c.Faults() != 2 {
		t.Errorf("Expected fault count to stay 2, got %d", c.Faults())
	}
	if !gpio.pins[DefaultConfig().LED] {
		t.Error("Expected LED pin high")
	}
}

package core

import (
	"image/color"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// Console ties the scan engine to the foreground drawing and input API.
// Foreground methods must not be called from interrupt context.
type Console struct {
	cfg  Config
	gpio GPIODriver
	bus  ScanBus

	pixels  PixelBuffer
	frames  FrameStore
	scanner *RowScanner
	sampler *InputSampler
	ticks   *TickDispatcher
	buzzer  *Buzzer

	led       bool
	ledFaults uint32
	commits   uint32

	// isr is bound once so the interrupt path never allocates
	isr func()
}

// New validates cfg, builds a bit-banged Bus on gpio and configures every
// pin. adc may be nil when no input is analog.
func New(cfg Config, gpio GPIODriver, adc ADCDriver) (*Console, error) {
	if gpio == nil {
		return nil, ErrNoGPIO
	}
	return NewWithBus(cfg, gpio, adc, NewBus(gpio, cfg.Bus))
}

// busConfigurer is implemented by buses that own pin setup
type busConfigurer interface {
	Configure() error
}

// NewWithBus is New with a caller-supplied ScanBus, such as a PIO-driven one.
// The bus is configured here if it has a Configure method.
func NewWithBus(cfg Config, gpio GPIODriver, adc ADCDriver, bus ScanBus) (*Console, error) {
	if gpio == nil {
		return nil, ErrNoGPIO
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Console{
		cfg:  cfg,
		gpio: gpio,
		bus:  bus,
	}
	c.scanner = NewRowScanner(bus, &c.frames)
	c.scanner.SetBlanking(cfg.Blanking)
	c.sampler = NewInputSampler(gpio, adc, cfg.Inputs)
	c.sampler.SetDebounceSamples(cfg.DebounceSamples)
	c.ticks = NewTickDispatcher(c.scanner, c.sampler, cfg.RowPeriod)
	c.isr = c.ticks.Tick

	if bc, ok := bus.(busConfigurer); ok {
		if err := bc.Configure(); err != nil {
			return nil, err
		}
	}
	if err := c.sampler.Configure(); err != nil {
		return nil, err
	}
	if cfg.LED != NoPin {
		if err := gpio.ConfigureOutput(cfg.LED); err != nil {
			return nil, err
		}
		if err := gpio.SetPin(cfg.LED, false); err != nil {
			return nil, err
		}
	}

	var out BuzzerOutput
	if cfg.Buzzer != NoPin {
		if err := gpio.ConfigureOutput(cfg.Buzzer); err != nil {
			return nil, err
		}
		out = GPIOBuzzer{GPIO: gpio, Pin: cfg.Buzzer}
	}
	c.buzzer = NewBuzzer(out)

	DebugPrintln("[CONSOLE] ready, row period " + utoa(uint32(cfg.RowPeriod)))
	return c, nil
}

// SetBuzzerOutput replaces the buzzer driver, e.g. with a *buzzer.Device
func (c *Console) SetBuzzerOutput(out BuzzerOutput) {
	c.buzzer = NewBuzzer(out)
}

// Interrupt runs one tick. It is the body of the timer interrupt.
func (c *Console) Interrupt() {
	runInterrupt(c.isr)
}

// installed is the console HandleInterrupt routes to
var installed atomic.Pointer[Console]

// Install makes c the console the timer interrupt drives. Call it before
// starting the tick source. Install(nil) detaches.
func Install(c *Console) {
	installed.Store(c)
}

// Installed returns the console set by Install, or nil
func Installed() *Console {
	return installed.Load()
}

// HandleInterrupt is the parameterless entry bound to the hardware timer.
// It does nothing until a console is installed.
func HandleInterrupt() {
	if c := installed.Load(); c != nil {
		runInterrupt(c.isr)
	}
}

// SetPixel changes one pixel of the working buffer. Out-of-range
// coordinates are ignored.
func (c *Console) SetPixel(x, y int, on bool) {
	c.pixels.Set(x, y, on)
}

// Pixel returns one pixel of the working buffer
func (c *Console) Pixel(x, y int) bool {
	return c.pixels.Get(x, y)
}

// CommitFrame packs the working buffer and hands it to the scanner.
// Returns false if the display already shows this image.
func (c *Console) CommitFrame() bool {
	if !c.frames.Publish(c.pixels.Pack()) {
		return false
	}
	c.commits++
	recordTimingMasked(EvtCommit, 0, 0, c.commits, 0)
	return true
}

// ClearAll turns every pixel off and commits
func (c *Console) ClearAll() {
	c.pixels.Fill(false)
	c.CommitFrame()
}

// FillAll turns every pixel on and commits
func (c *Console) FillAll() {
	c.pixels.Fill(true)
	c.CommitFrame()
}

// LoadFrame replaces the working buffer with f and commits
func (c *Console) LoadFrame(f Frame) {
	c.pixels.Unpack(f)
	c.CommitFrame()
}

// Committed returns the frame being scanned out
func (c *Console) Committed() Frame {
	return c.frames.Snapshot()
}

// Commits returns how many frames have been published
func (c *Console) Commits() uint32 {
	return c.commits
}

// WasPressed reports and clears a latched press (or light rise for LDR)
func (c *Console) WasPressed(ch Channel) bool {
	return c.sampler.Consume(ch)
}

// IsHeld reads a button's current level. Always false for LDR.
func (c *Console) IsHeld(ch Channel) bool {
	return c.sampler.IsActive(ch)
}

// ConsumeInputs returns and clears every latched event as a channel bit mask
func (c *Console) ConsumeInputs() uint8 {
	return c.sampler.ConsumeAll()
}

// HeldInputs returns the held state of every channel as a bit mask
func (c *Console) HeldInputs() uint8 {
	return c.sampler.HeldMask()
}

// AnalogLevel reads the light sensor now
func (c *Console) AnalogLevel() uint16 {
	return c.sampler.AnalogLevel()
}

// SetAnalogThreshold sets the rise that counts as a light-sensor event
func (c *Console) SetAnalogThreshold(v uint16) {
	c.sampler.SetThreshold(v)
}

// AnalogThreshold returns the light-sensor threshold
func (c *Console) AnalogThreshold() uint16 {
	return c.sampler.Threshold()
}

// SetRowPeriod changes the scan speed from the next row advance on
func (c *Console) SetRowPeriod(ticks uint16) {
	c.ticks.SetRowPeriod(ticks)
}

// RowPeriod returns the requested row period
func (c *Console) RowPeriod() uint16 {
	return c.ticks.RowPeriod()
}

// SetDebounceSamples sets the consecutive samples a button needs to change level
func (c *Console) SetDebounceSamples(n uint8) {
	c.sampler.SetDebounceSamples(n)
}

// DebounceTicks is the debounce interval in ticks
func (c *Console) DebounceTicks() uint32 {
	return uint32(c.sampler.DebounceSamples()) * uint32(c.ticks.RowPeriod())
}

// SetBlanking toggles the extra row-clear transfer on each advance
func (c *Console) SetBlanking(enabled bool) {
	state := disableInterrupts()
	c.scanner.SetBlanking(enabled)
	restoreInterrupts(state)
}

// ScanState returns the scanner position
func (c *Console) ScanState() ScanState {
	state := disableInterrupts()
	s := c.scanner.State()
	restoreInterrupts(state)
	return s
}

// Ticks returns the free-running interrupt tick count
func (c *Console) Ticks() uint32 {
	return c.ticks.BuzzerTicks()
}

// faultCounter is implemented by buses that count rejected writes
type faultCounter interface {
	Faults() uint32
}

// Faults returns the number of swallowed I/O errors: bus and input reads
// on the interrupt path, plus status LED writes.
func (c *Console) Faults() uint32 {
	n := c.sampler.Faults() + c.ledFaults
	if fc, ok := c.bus.(faultCounter); ok {
		n += fc.Faults()
	}
	return n
}

// SetLED drives the status LED
func (c *Console) SetLED(on bool) {
	if c.cfg.LED == NoPin {
		return
	}
	c.led = on
	if err := c.gpio.SetPin(c.cfg.LED, on); err != nil {
		c.ledFaults++
		DebugPrintln("[CONSOLE] LED write failed: " + err.Error())
	}
}

// ToggleLED flips the status LED
func (c *Console) ToggleLED() {
	c.SetLED(!c.led)
}

// LED returns the last state written to the status LED
func (c *Console) LED() bool {
	return c.led
}

// Beep sounds the buzzer for ticks interrupt ticks. Update turns it off.
func (c *Console) Beep(ticks uint32) {
	c.buzzer.Beep(c.ticks.BuzzerTicks(), ticks)
}

// Update services the buzzer. Call it once per main-loop pass.
func (c *Console) Update() error {
	return c.buzzer.Update(c.ticks.BuzzerTicks())
}

// Buzzing reports whether the buzzer output is on
func (c *Console) Buzzing() bool {
	return c.buzzer.Sounding()
}

// Displayer returns a drivers.Displayer view of the working buffer.
// Display commits the frame.
func (c *Console) Displayer() drivers.Displayer {
	return displayer{c}
}

type displayer struct {
	c *Console
}

func (d displayer) Size() (x, y int16) {
	return DisplaySize, DisplaySize
}

// SetPixel lights the pixel for any non-black colour
func (d displayer) SetPixel(x, y int16, col color.RGBA) {
	d.c.SetPixel(int(x), int(y), col.R|col.G|col.B != 0)
}

func (d displayer) Display() error {
	d.c.CommitFrame()
	return nil
}

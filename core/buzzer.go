package core

// BuzzerOutput drives the piezo. *buzzer.Device from tinygo.org/x/drivers
// satisfies it on the TinyGo targets.
type BuzzerOutput interface {
	On() error
	Off() error
}

// Buzzer times a single beep against the dispatcher's free-running tick
// counter. All methods run in the foreground.
type Buzzer struct {
	out   BuzzerOutput
	start uint32
	ticks uint32
	armed bool
	on    bool
}

// NewBuzzer wraps out. A nil output makes every call a no-op.
func NewBuzzer(out BuzzerOutput) *Buzzer {
	return &Buzzer{out: out}
}

// Beep arms the buzzer for ticks interrupt ticks starting at now.
// A new beep replaces one still sounding.
func (b *Buzzer) Beep(now, ticks uint32) {
	b.start = now
	b.ticks = ticks
	b.armed = ticks > 0
}

// Update drives the output for the tick count now. Call it from the main
// loop; the beep length is only as precise as the loop rate.
func (b *Buzzer) Update(now uint32) error {
	if b.out == nil {
		return nil
	}
	want := b.armed && now-b.start < b.ticks
	if !want {
		b.armed = false
	}
	if want == b.on {
		return nil
	}
	b.on = want
	if want {
		return b.out.On()
	}
	return b.out.Off()
}

// Sounding reports whether the output is currently driven on
func (b *Buzzer) Sounding() bool {
	return b.on
}

// GPIOBuzzer drives a buzzer pin through the registered GPIO driver.
// Used where no dedicated buzzer driver exists (simulator, Linux boards).
type GPIOBuzzer struct {
	GPIO GPIODriver
	Pin  GPIOPin
}

func (g GPIOBuzzer) On() error {
	return g.GPIO.SetPin(g.Pin, true)
}

func (g GPIOBuzzer) Off() error {
	return g.GPIO.SetPin(g.Pin, false)
}

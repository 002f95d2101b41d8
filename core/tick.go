package core

// Rower and Sampler are the two jobs the tick dispatcher schedules.
// RowScanner and InputSampler implement them.
type Rower interface {
	AdvanceRow()
}

type Sampler interface {
	Sample()
}

// TickDispatcher is the body of the fixed-rate timer interrupt. Every
// rowPeriod ticks it advances the scanner; half a period later it samples
// the inputs.
type TickDispatcher struct {
	scanner Rower
	sampler Sampler

	buzzerTicks uint32 // free-running
	sinceRow    uint16 // ticks since the last row advance
	period      uint16 // active row period, >= 1
	pending     uint16 // row period adopted at the next advance
}

// NewTickDispatcher creates a dispatcher. A period of 0 is clamped to 1.
func NewTickDispatcher(scanner Rower, sampler Sampler, period uint16) *TickDispatcher {
	if period == 0 {
		period = 1
	}
	return &TickDispatcher{
		scanner: scanner,
		sampler: sampler,
		period:  period,
		pending: period,
	}
}

// Tick runs one timer interrupt's worth of work. Interrupt context.
func (d *TickDispatcher) Tick() {
	d.buzzerTicks++

	d.sinceRow++
	if d.sinceRow == d.period {
		d.scanner.AdvanceRow()
		d.sinceRow = 0
		if d.pending != d.period {
			RecordTiming(EvtPeriodChange, 0, d.buzzerTicks, uint32(d.period), uint32(d.pending))
			d.period = d.pending
		}
	}

	if d.sinceRow == d.period/2 {
		d.sampler.Sample()
	}
}

// SetRowPeriod requests a new row period in ticks. It takes effect at the
// next row advance. 0 is invalid and clamped to 1.
func (d *TickDispatcher) SetRowPeriod(ticks uint16) {
	clamped := ticks == 0
	if clamped {
		DebugPrintln("[TICK] row period 0 clamped to 1")
		ticks = 1
	}
	state := disableInterrupts()
	if clamped {
		RecordTiming(EvtPeriodClamp, 0, d.buzzerTicks, 0, 1)
	}
	d.pending = ticks
	restoreInterrupts(state)
}

// RowPeriod returns the row period that will be in force after the next
// row advance.
func (d *TickDispatcher) RowPeriod() uint16 {
	state := disableInterrupts()
	p := d.pending
	restoreInterrupts(state)
	return p
}

// ActiveRowPeriod returns the row period currently being counted
func (d *TickDispatcher) ActiveRowPeriod() uint16 {
	state := disableInterrupts()
	p := d.period
	restoreInterrupts(state)
	return p
}

// BuzzerTicks returns the free-running tick count
func (d *TickDispatcher) BuzzerTicks() uint32 {
	state := disableInterrupts()
	t := d.buzzerTicks
	restoreInterrupts(state)
	return t
}

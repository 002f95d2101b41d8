package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a scan-engine event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Line      uint8  // Scan line or input channel
	Tick      uint32 // Buzzer tick count at event, when known
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtRowAdvance   = 1 // row scanner sent a line
	EvtSample       = 2 // input sampler ran
	EvtInputLatch   = 3 // a channel latched an event
	EvtCommit       = 4 // foreground published a new frame
	EvtPeriodChange = 5 // pending row period adopted
	EvtPeriodClamp  = 6 // row period 0 requested
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active.
	// Disabled by default; printing from the tick path would stretch the ISR.
	debugEnabled bool = false

	// Timing capture ring buffer. Written from interrupt context; foreground
	// access goes through a critical section.
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8 // Next write position
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Foreground only.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures an event in the ring buffer. Interrupt context:
// no allocation, no locking. Foreground code uses recordTimingMasked.
func RecordTiming(eventType, line uint8, tick, value1, value2 uint32) {
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Line:      line,
		Tick:      tick,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// recordTimingMasked records an event from the foreground with the tick
// held off, so it cannot interleave with an interrupt-side write.
func recordTimingMasked(eventType, line uint8, tick, value1, value2 uint32) {
	state := disableInterrupts()
	RecordTiming(eventType, line, tick, value1, value2)
	restoreInterrupts(state)
}

// TimingEvents returns the ring contents, oldest first, skipping empty
// slots. Foreground only.
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)

	state := disableInterrupts()
	ring := timingRing
	start := timingRingHead
	restoreInterrupts(state)

	for i := uint8(0); i < TimingRingSize; i++ {
		evt := ring[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

func timingEventName(eventType uint8) string {
	switch eventType {
	case EvtRowAdvance:
		return "ROW"
	case EvtSample:
		return "SAMPLE"
	case EvtInputLatch:
		return "LATCH"
	case EvtCommit:
		return "COMMIT"
	case EvtPeriodChange:
		return "PERIOD"
	case EvtPeriodClamp:
		return "PERIOD_CLAMP!"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing outputs the timing ring buffer.
// Call from the foreground; the tick source may keep running.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + timingEventName(evt.EventType) +
			" line=" + itoa(int(evt.Line)) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer. Foreground only.
func ClearTimingRing() {
	state := disableInterrupts()
	timingRing = [TimingRingSize]TimingEvent{}
	timingRingHead = 0
	restoreInterrupts(state)
}

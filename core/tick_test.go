package core

import "testing"

// tickLog records which job ran on which tick
type tickLog struct {
	tick     int
	advances []int
	samples  []int
}

type logRower struct{ log *tickLog }

func (r logRower) AdvanceRow() { r.log.advances = append(r.log.advances, r.log.tick) }

type logSampler struct{ log *tickLog }

func (s logSampler) Sample() { s.log.samples = append(s.log.samples, s.log.tick) }

func runTicks(d *TickDispatcher, log *tickLog, n int) {
	for i := 0; i < n; i++ {
		log.tick++
		d.Tick()
	}
}

func TestTickDispatcherCadence(t *testing.T) {
	log := &tickLog{}
	d := NewTickDispatcher(logRower{log}, logSampler{log}, 50)

	runTicks(d, log, 400)

	if len(log.advances) != 8 {
		t.Fatalf("Expected 8 row advances in 400 ticks, got %d", len(log.advances))
	}
	for i, tick := range log.advances {
		if tick != 50*(i+1) {
			t.Errorf("Advance %d: expected tick %d, got %d", i, 50*(i+1), tick)
		}
	}

	// sampled 25 ticks after each advance, plus once at tick 25 before the first
	if len(log.samples) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(log.samples))
	}
	for i, tick := range log.samples {
		if tick != 25+50*i {
			t.Errorf("Sample %d: expected tick %d, got %d", i, 25+50*i, tick)
		}
	}

	if d.BuzzerTicks() != 400 {
		t.Errorf("Expected buzzer ticks 400, got %d", d.BuzzerTicks())
	}
}

func TestTickDispatcherOddPeriod(t *testing.T) {
	log := &tickLog{}
	d := NewTickDispatcher(logRower{log}, logSampler{log}, 5)

	runTicks(d, log, 10)

	if len(log.advances) != 2 || log.advances[0] != 5 || log.advances[1] != 10 {
		t.Errorf("Expected advances at 5 and 10, got %v", log.advances)
	}
	// 5/2 == 2
	if len(log.samples) != 2 || log.samples[0] != 2 || log.samples[1] != 7 {
		t.Errorf("Expected samples at 2 and 7, got %v", log.samples)
	}
}

func TestTickDispatcherPeriodOne(t *testing.T) {
	log := &tickLog{}
	d := NewTickDispatcher(logRower{log}, logSampler{log}, 1)

	runTicks(d, log, 16)

	if len(log.advances) != 16 || len(log.samples) != 16 {
		t.Errorf("Expected advance and sample every tick, got %d advances %d samples", len(log.advances), len(log.samples))
	}
}

func TestTickDispatcherPeriodChangeAtNextAdvance(t *testing.T) {
	log := &tickLog{}
	d := NewTickDispatcher(logRower{log}, logSampler{log}, 10)

	runTicks(d, log, 3)
	d.SetRowPeriod(4)
	if d.ActiveRowPeriod() != 10 || d.RowPeriod() != 4 {
		t.Errorf("Expected active 10 pending 4, got %d and %d", d.ActiveRowPeriod(), d.RowPeriod())
	}

	runTicks(d, log, 15)

	want := []int{10, 14, 18}
	if len(log.advances) != len(want) {
		t.Fatalf("Expected advances %v, got %v", want, log.advances)
	}
	for i := range want {
		if log.advances[i] != want[i] {
			t.Errorf("Expected advances %v, got %v", want, log.advances)
			break
		}
	}
	if d.ActiveRowPeriod() != 4 {
		t.Errorf("Expected active period 4, got %d", d.ActiveRowPeriod())
	}
}

func TestTickDispatcherZeroPeriodClamped(t *testing.T) {
	log := &tickLog{}
	d := NewTickDispatcher(logRower{log}, logSampler{log}, 0)
	if d.RowPeriod() != 1 {
		t.Errorf("Expected constructor to clamp 0 to 1, got %d", d.RowPeriod())
	}

	d = NewTickDispatcher(logRower{log}, logSampler{log}, 8)
	d.SetRowPeriod(0)
	if d.RowPeriod() != 1 {
		t.Errorf("Expected SetRowPeriod(0) clamped to 1, got %d", d.RowPeriod())
	}
}

func TestTickDispatcherExactlyOneAdvancePerPeriod(t *testing.T) {
	for _, period := range []uint16{1, 2, 3, 7, 50, 255} {
		log := &tickLog{}
		d := NewTickDispatcher(logRower{log}, logSampler{log}, period)
		for window := 0; window < 4; window++ {
			before := len(log.advances)
			runTicks(d, log, int(period))
			if got := len(log.advances) - before; got != 1 {
				t.Errorf("Period %d window %d: expected 1 advance, got %d", period, window, got)
			}
		}
	}
}

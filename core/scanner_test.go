package core

import "testing"

func TestRowScannerMaskRotation(t *testing.T) {
	bus := &recordingBus{}
	var frames FrameStore
	scanner := NewRowScanner(bus, &frames)

	if s := scanner.State(); s != (ScanState{0, 0x80}) {
		t.Fatalf("Expected initial state {0 0x80}, got %+v", s)
	}

	seen := map[byte]bool{}
	for i := 0; i < 8; i++ {
		s := scanner.State()
		if s.Index != uint8(i) {
			t.Errorf("Advance %d: expected index %d, got %d", i, i, s.Index)
		}
		if s.Mask == 0 || s.Mask&(s.Mask-1) != 0 {
			t.Errorf("Advance %d: mask 0x%02X is not one-hot", i, s.Mask)
		}
		seen[s.Mask] = true
		scanner.AdvanceRow()
	}

	if len(seen) != 8 {
		t.Errorf("Expected 8 distinct masks, got %d", len(seen))
	}
	if s := scanner.State(); s != (ScanState{0, 0x80}) {
		t.Errorf("Expected wrap back to {0 0x80}, got %+v", s)
	}

	want := []byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}
	for i, m := range want {
		if bus.rows[i] != m {
			t.Errorf("Row %d: expected mask 0x%02X, got 0x%02X", i, m, bus.rows[i])
		}
	}
}

func TestRowScannerReproducesFrame(t *testing.T) {
	bus := &recordingBus{}
	var frames FrameStore
	f := Frame{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x81}
	frames.Publish(f)

	scanner := NewRowScanner(bus, &frames)
	for i := 0; i < 8; i++ {
		scanner.AdvanceRow()
	}

	for i := range f {
		if bus.columns[i] != f[i] {
			t.Errorf("Line %d: expected column byte 0x%02X, got 0x%02X", i, f[i], bus.columns[i])
		}
	}
}

func TestRowScannerTwoTransfersColumnFirst(t *testing.T) {
	bus := &recordingBus{}
	var frames FrameStore
	scanner := NewRowScanner(bus, &frames)

	scanner.AdvanceRow()

	if len(bus.order) != 2 || bus.order[0] != "col" || bus.order[1] != "row" {
		t.Errorf("Expected [col row], got %v", bus.order)
	}
}

func TestRowScannerBlanking(t *testing.T) {
	bus := &recordingBus{}
	var frames FrameStore
	scanner := NewRowScanner(bus, &frames)
	scanner.SetBlanking(true)

	scanner.AdvanceRow()

	if len(bus.order) != 3 || bus.order[0] != "row" || bus.rows[0] != 0 {
		t.Errorf("Expected a row clear before the column load, got %v rows %v", bus.order, bus.rows)
	}
	if bus.rows[1] != 0x80 {
		t.Errorf("Expected row mask 0x80 after the clear, got 0x%02X", bus.rows[1])
	}
}

func TestRowScannerReset(t *testing.T) {
	bus := &recordingBus{}
	var frames FrameStore
	scanner := NewRowScanner(bus, &frames)

	scanner.AdvanceRow()
	scanner.AdvanceRow()
	scanner.Reset()

	if s := scanner.State(); s != (ScanState{0, 0x80}) {
		t.Errorf("Expected {0 0x80} after Reset, got %+v", s)
	}
}

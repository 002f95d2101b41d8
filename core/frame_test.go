package core

import "testing"

func TestPixelBufferPack(t *testing.T) {
	var p PixelBuffer
	p.Set(0, 0, true)
	p.Set(7, 0, true)
	p.Set(3, 5, true)

	f := p.Pack()
	want := Frame{0x81, 0, 0, 0, 0, 0x08, 0, 0}
	if f != want {
		t.Errorf("Expected %s, got %s", FrameString(want), FrameString(f))
	}

	var q PixelBuffer
	q.Unpack(f)
	if q != p {
		t.Error("Unpack(Pack()) did not restore the buffer")
	}
}

func TestPixelBufferBounds(t *testing.T) {
	var p PixelBuffer
	testCases := []struct{ x, y int }{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}}

	for _, tc := range testCases {
		if p.Set(tc.x, tc.y, true) {
			t.Errorf("Set(%d, %d) should be rejected", tc.x, tc.y)
		}
		if p.Get(tc.x, tc.y) {
			t.Errorf("Get(%d, %d) should read unlit", tc.x, tc.y)
		}
	}
	if p.Pack() != (Frame{}) {
		t.Error("Out-of-range writes changed the buffer")
	}
}

func TestPixelBufferFill(t *testing.T) {
	var p PixelBuffer
	p.Fill(true)
	if f := p.Pack(); f != (Frame{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("Expected all lines 0xFF, got %s", FrameString(f))
	}
	p.Fill(false)
	if p.Pack() != (Frame{}) {
		t.Error("Expected blank frame after Fill(false)")
	}
}

func TestFrameStorePublish(t *testing.T) {
	var s FrameStore
	f := Frame{1, 2, 3, 4, 5, 6, 7, 8}

	if !s.Publish(f) {
		t.Fatal("First publish of a new frame should flip")
	}
	if s.Snapshot() != f {
		t.Errorf("Expected %s shown, got %s", FrameString(f), FrameString(s.Snapshot()))
	}
	for i := range f {
		if s.Line(uint8(i)) != f[i] {
			t.Errorf("Line %d: expected 0x%02X, got 0x%02X", i, f[i], s.Line(uint8(i)))
		}
	}

	if s.Publish(f) {
		t.Error("Publishing identical content should not flip")
	}

	g := f
	g[7] = 0xFF
	if !s.Publish(g) || s.Snapshot() != g {
		t.Error("Changed content should be published")
	}
}

func TestFrameStoreEmptyFrameIsCurrent(t *testing.T) {
	var s FrameStore
	if s.Publish(Frame{}) {
		t.Error("A blank frame matches the power-on frame and should not flip")
	}
}

func TestFrameString(t *testing.T) {
	got := FrameString(Frame{0x00, 0x0F, 0xF0, 0xFF, 0x12, 0x34, 0xAB, 0x01})
	want := "00 0f f0 ff 12 34 ab 01"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

package core

// DisplaySize is the width and height of the LED matrix
const DisplaySize = 8

// Frame is the packed image the scanner consumes: Frame[y] holds the
// column bits shown while scan line y is selected, bit x set iff pixel
// (x, y) is lit. Bit 0 is the leftmost column and is shifted out first.
type Frame [DisplaySize]byte

// PixelBuffer is the foreground working image, indexed [x][y]
type PixelBuffer [DisplaySize][DisplaySize]bool

// inBounds reports whether (x, y) addresses a pixel
func inBounds(x, y int) bool {
	return x >= 0 && x < DisplaySize && y >= 0 && y < DisplaySize
}

// Set changes one pixel. Out-of-range coordinates are ignored and
// reported as false.
func (p *PixelBuffer) Set(x, y int, on bool) bool {
	if !inBounds(x, y) {
		return false
	}
	p[x][y] = on
	return true
}

// Get returns one pixel; out-of-range coordinates read as unlit
func (p *PixelBuffer) Get(x, y int) bool {
	if !inBounds(x, y) {
		return false
	}
	return p[x][y]
}

// Fill sets every pixel to on
func (p *PixelBuffer) Fill(on bool) {
	for x := range p {
		for y := range p[x] {
			p[x][y] = on
		}
	}
}

// Pack converts the buffer to scan-line bytes
func (p *PixelBuffer) Pack() Frame {
	var f Frame
	for y := 0; y < DisplaySize; y++ {
		var line byte
		for x := 0; x < DisplaySize; x++ {
			if p[x][y] {
				line |= 1 << uint(x)
			}
		}
		f[y] = line
	}
	return f
}

// Unpack overwrites the buffer with the contents of f
func (p *PixelBuffer) Unpack(f Frame) {
	for y := 0; y < DisplaySize; y++ {
		for x := 0; x < DisplaySize; x++ {
			p[x][y] = f[y]&(1<<uint(x)) != 0
		}
	}
}

// FrameStore double-buffers the committed frame between the foreground
// and the row scanner. The scanner only ever reads frames[active]; the
// foreground writes the other slot and flips active inside a critical
// section that covers the flip alone.
type FrameStore struct {
	frames [2]Frame
	active uint8
}

// Publish makes f the frame the scanner shows. It returns false, leaving
// the store untouched, when f matches the frame already being shown.
// Foreground only.
func (s *FrameStore) Publish(f Frame) bool {
	// active is only written by the foreground, so reading it here
	// without masking is safe.
	front := s.active
	if s.frames[front] == f {
		return false
	}
	back := front ^ 1
	s.frames[back] = f

	state := disableInterrupts()
	s.active = back
	restoreInterrupts(state)
	return true
}

// Line returns the committed bits for scan line i. Interrupt context.
func (s *FrameStore) Line(i uint8) byte {
	return s.frames[s.active][i&(DisplaySize-1)]
}

// Snapshot returns a copy of the frame being shown. Foreground only.
func (s *FrameStore) Snapshot() Frame {
	return s.frames[s.active]
}

package protocol

// InputBuffer is the receive side the transports parse from
type InputBuffer interface {
	// Data returns the unread bytes
	Data() []byte

	// Available returns the number of unread bytes
	Available() int

	// Pop discards n bytes from the front
	Pop(n int)
}

// OutputBuffer is the transmit side blocks are assembled in
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update overwrites one byte already written
	Update(pos int, val byte)

	// DataSince returns everything written from pos on
	DataSince(pos int) []byte
}

// SliceInputBuffer reads from a fixed byte slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput collects output in a fixed array until the owner drains it.
// Writes past the end are dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Free returns how many more bytes fit
func (s *ScratchOutput) Free() int {
	return len(s.buf) - s.pos
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a byte ring between a serial driver and a transport.
// One slot is kept empty to tell full from empty.
type FifoBuffer struct {
	buf    []byte
	linear []byte // Data scratch for the wrapped case
	read   int
	write  int
}

// NewFifoBuffer creates a ring holding up to capacity-1 bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:    make([]byte, capacity),
		linear: make([]byte, capacity),
	}
}

// Write appends as much of data as fits and returns the count
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		next := (f.write + 1) % len(f.buf)
		if next == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = next
		written++
	}
	return written
}

// Read moves up to len(data) bytes out of the ring
func (f *FifoBuffer) Read(data []byte) int {
	n := 0
	for n < len(data) && f.read != f.write {
		data[n] = f.buf[f.read]
		f.read = (f.read + 1) % len(f.buf)
		n++
	}
	return n
}

func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return len(f.buf) - f.read + f.write
}

func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available() - 1
}

// Data returns the unread bytes as one slice. When the ring has wrapped
// they are copied into an internal scratch, valid until the next call.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	n := copy(f.linear, f.buf[f.read:])
	n += copy(f.linear[n:], f.buf[:f.write])
	return f.linear[:n]
}

func (f *FifoBuffer) Pop(n int) {
	if avail := f.Available(); n > avail {
		n = avail
	}
	f.read = (f.read + n) % len(f.buf)
}

func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}

package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrTransportClosed = errors.New("transport stopped")
	ErrNak             = errors.New("block not acknowledged")
)

// DefaultAckTimeout is how long SendCommand waits for the console's ack
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler receives every response block the console sends
type ResponseHandler func(cmdID uint16, data *[]byte) error

// Message is one received block
type Message struct {
	Sequence uint8
	Payload  []byte // command ID and arguments, owned by the receiver
}

// HostTransport is the PC side of the link. A background goroutine reads
// the port, hands acks to the sender waiting in SendCommand and queues
// responses for ReceiveResponse.
type HostTransport struct {
	port io.ReadWriteCloser

	seq          atomic.Uint32 // sequence byte of the next block we send
	synchronized atomic.Bool

	input *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	handlerMu       sync.RWMutex
	responseHandler ResponseHandler

	sendMu sync.Mutex // one block in flight

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		input:        NewFifoBuffer(1024),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	t.seq.Store(MessageDest)
	t.synchronized.Store(true)

	go t.readLoop()
	return t
}

// SendCommand sends one command and waits for its ack
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout is SendCommand with an explicit ack timeout
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	seq := uint8(t.seq.Load())
	block, err := AppendBlock(make([]byte, 0, MessageLengthMax), seq, payload.Result())
	if err != nil {
		return fmt.Errorf("command %d: %w", cmdID, err)
	}

	// drop a stale ack from an earlier timed-out send
	select {
	case <-t.ackChan:
	default:
	}

	if _, err := t.port.Write(block); err != nil {
		return fmt.Errorf("write block: %w", err)
	}

	return t.waitForAck(seq, timeout)
}

// waitForAck waits for the ack naming the block after seq
func (t *HostTransport) waitForAck(seq uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	want := NextSequence(seq)
	select {
	case ack := <-t.ackChan:
		if ack.Sequence != want {
			return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrNak, want, ack.Sequence)
		}
		t.seq.Store(uint32(want))
		return nil

	case <-timer.C:
		return fmt.Errorf("ack timeout after %v", timeout)

	case <-t.stopChan:
		return ErrTransportClosed
	}
}

// ReceiveResponse returns the next queued response
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("response timeout after %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// SetResponseHandler installs a callback run for every response, before
// it is queued for ReceiveResponse.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.responseHandler = handler
	t.handlerMu.Unlock()
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			t.processInput()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processInput parses every complete block in the input ring
func (t *HostTransport) processInput() {
	data := t.input.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
			rest, found := skipToSync(data)
			data = rest
			t.synchronized.Store(found)
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		msgLen, status := scanBlock(data)
		if status == scanNeedMore {
			break
		}
		if status == scanBad {
			t.synchronized.Store(false)
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msg := &Message{Sequence: data[MessagePositionSeq], Payload: payload}
		data = data[msgLen:]

		t.dispatchMessage(msg)
	}

	if consumed := t.input.Available() - len(data); consumed > 0 {
		t.input.Pop(consumed)
	}
}

func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	t.handlerMu.RLock()
	handler := t.responseHandler
	t.handlerMu.RUnlock()
	if handler != nil {
		data := msg.Payload
		if cmdID, err := DecodeVLQUint(&data); err == nil {
			_ = handler(uint16(cmdID), &data)
		}
	}

	select {
	case t.responseChan <- msg:
	default:
		// full: drop the oldest
		select {
		case <-t.responseChan:
		default:
		}
		select {
		case t.responseChan <- msg:
		default:
		}
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Reset restarts the sequence at 0x10 and drops queued input, which makes
// the console reset its side too.
func (t *HostTransport) Reset() {
	t.synchronized.Store(true)
	t.seq.Store(MessageDest)
	for len(t.ackChan) > 0 {
		<-t.ackChan
	}
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}
}

// CurrentSequence returns the sequence byte of the next block
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(t.seq.Load())
}

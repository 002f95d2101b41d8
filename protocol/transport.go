package protocol

import "sync/atomic"

// CommandHandler runs one decoded command. It must consume exactly its
// own arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the console side of the link: it parses host blocks,
// dispatches their commands, acks every block and frames responses.
type Transport struct {
	synchronized atomic.Bool
	nextSeq      atomic.Uint32 // sequence byte expected from the host

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	flushCallback func()
	errorCallback func(cmdID uint16, err error)
}

// NewTransport creates a transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{output: output, handler: handler}
	t.synchronized.Store(true)
	t.nextSeq.Store(MessageDest)
	return t
}

// Receive parses every complete block in input and pops what it consumed.
// A partial block is left for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
			rest, found := skipToSync(data)
			data = rest
			if found {
				t.synchronized.Store(true)
				t.encodeAckNak()
			}
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

		seq := data[MessagePositionSeq]
		payload := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		expected := uint8(t.nextSeq.Load())
		if seq == MessageDest && expected != MessageDest {
			// host restarted its sequence
			expected = MessageDest
			t.nextSeq.Store(MessageDest)
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expected {
			t.nextSeq.Store(uint32(NextSequence(seq)))
			t.dispatch(payload)
		}
		// acks a new block, naks a repeated or out-of-order one
		t.encodeAckNak()
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// dispatch runs every command in one payload. A handler error stops the
// rest of the block; a malformed command ID drops sync.
func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.synchronized.Store(false)
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.synchronized.Store(false)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			if t.errorCallback != nil {
				t.errorCallback(uint16(cmdID), err)
			}
			return
		}
	}
}

// encodeAckNak sends an empty block naming the next expected sequence.
// It is flushed at once so the ack precedes any response.
func (t *Transport) encodeAckNak() {
	var buf [MessageLengthMin]byte
	ack, _ := AppendBlock(buf[:0], uint8(t.nextSeq.Load()), nil)
	t.output.Output(ack)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one block whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(t.nextSeq.Load())})

	frameData(t.output)

	length := len(t.output.DataSince(cursor)) + MessageTrailerSize
	t.output.Update(cursor+MessagePositionLen, uint8(length))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})
}

// SendCommand frames one response message
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns to the power-on state, e.g. after a USB reconnect
func (t *Transport) Reset() {
	t.synchronized.Store(true)
	t.nextSeq.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// Synchronized reports whether the transport is in step with the host
func (t *Transport) Synchronized() bool {
	return t.synchronized.Load()
}

// SetResetCallback is called when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback is called after every ack so the target can push it out
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorCallback is called when a command handler fails
func (t *Transport) SetErrorCallback(callback func(cmdID uint16, err error)) {
	t.errorCallback = callback
}

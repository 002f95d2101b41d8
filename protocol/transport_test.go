package protocol

import (
	"bytes"
	"errors"
	"testing"
)

type recordedCommand struct {
	id   uint16
	args []uint32
}

// newTestTransport returns a transport whose handler decodes nargs
// integers per command and records them
func newTestTransport(nargs int) (*Transport, *ScratchOutput, *[]recordedCommand) {
	out := NewScratchOutput()
	var got []recordedCommand
	tr := NewTransport(out, func(id uint16, data *[]byte) error {
		cmd := recordedCommand{id: id}
		for i := 0; i < nargs; i++ {
			v, err := DecodeVLQUint(data)
			if err != nil {
				return err
			}
			cmd.args = append(cmd.args, v)
		}
		got = append(got, cmd)
		return nil
	})
	return tr, out, &got
}

func hostBlock(t *testing.T, seq uint8, payload ...byte) []byte {
	t.Helper()
	block, err := AppendBlock(nil, seq, payload)
	if err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	return block
}

func ackFor(seq uint8) []byte {
	block, _ := AppendBlock(nil, seq, nil)
	return block
}

func TestAppendParseBlock(t *testing.T) {
	block := hostBlock(t, 0x13, 0x05, 0x82, 0x2C)

	if block[0] != byte(len(block)) {
		t.Errorf("Length byte %d does not match block size %d", block[0], len(block))
	}
	if block[len(block)-1] != MessageValueSync {
		t.Errorf("Expected trailing sync byte, got 0x%02x", block[len(block)-1])
	}

	seq, payload, err := ParseBlock(block)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if seq != 0x13 || !bytes.Equal(payload, []byte{0x05, 0x82, 0x2C}) {
		t.Errorf("Expected seq 0x13 payload 05 82 2c, got 0x%02x % x", seq, payload)
	}

	block[2] ^= 0xFF
	if _, _, err := ParseBlock(block); !errors.Is(err, ErrBadBlock) {
		t.Errorf("Expected ErrBadBlock for corrupted block, got %v", err)
	}

	if _, err := AppendBlock(nil, MessageDest, make([]byte, MessagePayloadMax+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("Expected ErrMessageTooLong, got %v", err)
	}
}

func TestTransportDispatchAndAck(t *testing.T) {
	tr, out, got := newTestTransport(1)

	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 4, 0x82, 0x2C, 6, 9)))

	if len(*got) != 2 {
		t.Fatalf("Expected 2 commands dispatched, got %d", len(*got))
	}
	if (*got)[0].id != 4 || (*got)[0].args[0] != 300 {
		t.Errorf("Expected command 4 with 300, got %+v", (*got)[0])
	}
	if (*got)[1].id != 6 || (*got)[1].args[0] != 9 {
		t.Errorf("Expected command 6 with 9, got %+v", (*got)[1])
	}
	if !bytes.Equal(out.Result(), ackFor(0x11)) {
		t.Errorf("Expected ack for 0x11, got % x", out.Result())
	}
}

func TestTransportRepeatedBlockIsNaked(t *testing.T) {
	tr, out, got := newTestTransport(0)

	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 3)))
	out.Reset()
	tr.Receive(NewSliceInputBuffer(hostBlock(t, 0x12, 3)))

	if len(*got) != 1 {
		t.Errorf("Out-of-order block must not be dispatched, got %d commands", len(*got))
	}
	if !bytes.Equal(out.Result(), ackFor(0x11)) {
		t.Errorf("Expected nak naming 0x11, got % x", out.Result())
	}
}

func TestTransportPartialBlock(t *testing.T) {
	tr, _, got := newTestTransport(0)
	block := hostBlock(t, MessageDest, 7)

	fifo := NewFifoBuffer(64)
	fifo.Write(block[:4])
	tr.Receive(fifo)
	if len(*got) != 0 || fifo.Available() != 4 {
		t.Fatalf("Partial block should wait: dispatched %d, %d bytes left", len(*got), fifo.Available())
	}

	fifo.Write(block[4:])
	tr.Receive(fifo)
	if len(*got) != 1 || fifo.Available() != 0 {
		t.Errorf("Expected block dispatched and consumed, got %d commands, %d bytes left", len(*got), fifo.Available())
	}
}

func TestTransportResyncAfterGarbage(t *testing.T) {
	tr, _, got := newTestTransport(0)

	bad := hostBlock(t, MessageDest, 1)
	bad[2] ^= 0x55 // break the CRC

	var stream []byte
	stream = append(stream, bad...)
	stream = append(stream, hostBlock(t, MessageDest, 2)...)

	tr.Receive(NewSliceInputBuffer(stream))

	if !tr.Synchronized() {
		t.Error("Transport should be synchronized after the trailing sync byte")
	}
	if len(*got) != 1 || (*got)[0].id != 2 {
		t.Errorf("Expected only command 2 dispatched, got %+v", *got)
	}
}

func TestTransportHostReset(t *testing.T) {
	tr, _, _ := newTestTransport(0)
	resets := 0
	tr.SetResetCallback(func() { resets++ })

	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 1)))
	tr.Receive(NewSliceInputBuffer(hostBlock(t, 0x11, 1)))
	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 1)))

	if resets != 1 {
		t.Errorf("Expected 1 reset callback, got %d", resets)
	}
}

func TestTransportHandlerError(t *testing.T) {
	out := NewScratchOutput()
	failure := errors.New("bad argument")
	var reported error
	tr := NewTransport(out, func(id uint16, data *[]byte) error {
		return failure
	})
	tr.SetErrorCallback(func(id uint16, err error) { reported = err })

	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 5)))

	if !errors.Is(reported, failure) {
		t.Errorf("Expected handler error reported, got %v", reported)
	}
	if !tr.Synchronized() {
		t.Error("Handler errors must not drop sync")
	}
}

func TestTransportSendCommand(t *testing.T) {
	tr, out, _ := newTestTransport(0)
	tr.Receive(NewSliceInputBuffer(hostBlock(t, MessageDest, 1)))
	out.Reset()

	tr.SendCommand(9, func(output OutputBuffer) {
		EncodeVLQUint(output, 300)
	})

	seq, payload, err := ParseBlock(out.Result())
	if err != nil {
		t.Fatalf("Response block invalid: %v", err)
	}
	if seq != 0x11 {
		t.Errorf("Expected response seq 0x11, got 0x%02x", seq)
	}
	if !bytes.Equal(payload, []byte{9, 0x82, 0x2C}) {
		t.Errorf("Expected payload 09 82 2c, got % x", payload)
	}
}

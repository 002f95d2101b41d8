package protocol

import (
	"errors"
	"net"
	"testing"
	"time"
)

// fakeConsole runs a device Transport on one end of a pipe. Command 2
// answers with response 3 carrying its argument plus one.
func fakeConsole(t *testing.T, conn net.Conn) {
	t.Helper()
	out := NewScratchOutput()
	var dev *Transport
	dev = NewTransport(out, func(id uint16, data *[]byte) error {
		if id != 2 {
			return nil
		}
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		dev.SendCommand(3, func(o OutputBuffer) { EncodeVLQUint(o, v+1) })
		return nil
	})
	flush := func() {
		if out.CurPosition() == 0 {
			return
		}
		conn.Write(append([]byte(nil), out.Result()...))
		out.Reset()
	}
	dev.SetFlushCallback(flush)

	go func() {
		fifo := NewFifoBuffer(256)
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			fifo.Write(buf[:n])
			dev.Receive(fifo)
			flush()
		}
	}()
}

func TestHostTransportRoundTrip(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	fakeConsole(t, devEnd)
	defer devEnd.Close()

	host := NewHostTransport(hostEnd)
	defer host.Close()

	var handled uint16
	host.SetResponseHandler(func(id uint16, data *[]byte) error {
		handled = id
		return nil
	})

	for i := uint32(0); i < 20; i++ {
		err := host.SendCommandWithTimeout(2, func(o OutputBuffer) { EncodeVLQUint(o, i) }, time.Second)
		if err != nil {
			t.Fatalf("Command %d: %v", i, err)
		}

		resp, err := host.ReceiveResponse(time.Second)
		if err != nil {
			t.Fatalf("Response %d: %v", i, err)
		}
		data := resp.Payload
		id, _ := DecodeVLQUint(&data)
		v, _ := DecodeVLQUint(&data)
		if id != 3 || v != i+1 {
			t.Errorf("Expected response 3 with %d, got %d with %d", i+1, id, v)
		}
	}

	if handled != 3 {
		t.Errorf("Expected response handler to see id 3, got %d", handled)
	}
	// 20 blocks wrap the 4-bit sequence once
	if got := host.CurrentSequence(); got != 0x14 {
		t.Errorf("Expected next sequence 0x14, got 0x%02x", got)
	}
}

func TestHostTransportAckTimeout(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer devEnd.Close()
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := devEnd.Read(buf); err != nil {
				return
			}
		}
	}()

	host := NewHostTransport(hostEnd)
	defer host.Close()

	err := host.SendCommandWithTimeout(1, nil, 20*time.Millisecond)
	if err == nil {
		t.Fatal("Expected ack timeout")
	}
	if host.CurrentSequence() != MessageDest {
		t.Errorf("Sequence must not advance without an ack, got 0x%02x", host.CurrentSequence())
	}
}

func TestHostTransportClosed(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer devEnd.Close()

	host := NewHostTransport(hostEnd)
	if err := host.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := host.ReceiveResponse(time.Second); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed, got %v", err)
	}
	// second close is a no-op
	host.Close()
}

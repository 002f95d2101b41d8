// Package link drives a console over its serial link from a PC. A Client
// fetches the console's data dictionary with identify, resolves command
// names to IDs from it and wraps each console command in a typed call.
package link

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gamer/host/serial"
	"gamer/protocol"
)

var (
	ErrNoDictionary    = errors.New("dictionary not loaded")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUnknownResponse = errors.New("unknown response")
)

const (
	// identify bootstraps the dictionary, so its IDs are fixed
	identifyID         = 1
	identifyResponseID = 0
	identifyChunk      = 40

	// DefaultTimeout bounds the wait for one response
	DefaultTimeout = time.Second
)

// Dictionary is the parsed data dictionary
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`
}

// Client is one connection to a console
type Client struct {
	transport *protocol.HostTransport
	timeout   time.Duration

	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]uint16 // name without format
	responses      map[string]uint16
}

// Open connects to a console on a serial device
func Open(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}
	return NewClient(port), nil
}

// NewClient runs the link over an already open port
func NewClient(port io.ReadWriteCloser) *Client {
	return &Client{
		transport: protocol.NewHostTransport(port),
		timeout:   DefaultTimeout,
	}
}

// SetTimeout changes how long calls wait for a response
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close stops the reader and closes the port
func (c *Client) Close() error {
	return c.transport.Close()
}

// RetrieveDictionary fetches and parses the dictionary in identify chunks
func (c *Client) RetrieveDictionary() error {
	var buf bytes.Buffer
	offset := uint32(0)
	for {
		chunk, err := c.identify(offset, identifyChunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < identifyChunk {
			break
		}
	}

	dict := &Dictionary{}
	if err := json.Unmarshal(buf.Bytes(), dict); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	c.dictionaryData = buf.Bytes()
	c.dictionary = dict
	c.commands = byName(dict.Commands)
	c.responses = byName(dict.Responses)
	return nil
}

// byName strips the argument formats from dictionary keys
func byName(m map[string]int) map[string]uint16 {
	out := make(map[string]uint16, len(m))
	for key, id := range m {
		name, _, _ := strings.Cut(key, " ")
		out[name] = uint16(id)
	}
	return out
}

func (c *Client) identify(offset uint32, count uint8) ([]byte, error) {
	err := c.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, err
	}

	payload, err := c.awaitID(identifyResponseID)
	if err != nil {
		return nil, err
	}
	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}
	return protocol.DecodeVLQBytes(&payload)
}

// awaitID returns the arguments of the next response with the given ID,
// discarding any other responses queued before it.
func (c *Client) awaitID(id uint16) ([]byte, error) {
	deadline := time.Now().Add(c.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no response %d within %v", id, c.timeout)
		}
		msg, err := c.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		payload := msg.Payload
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			continue
		}
		if uint16(got) == id {
			return payload, nil
		}
	}
}

// Dictionary returns the parsed dictionary, nil before RetrieveDictionary
func (c *Client) Dictionary() *Dictionary {
	return c.dictionary
}

// DictionaryRaw returns the dictionary as received
func (c *Client) DictionaryRaw() []byte {
	return c.dictionaryData
}

// Send runs a command by name and waits for its ack
func (c *Client) Send(name string, args func(output protocol.OutputBuffer)) error {
	if c.dictionary == nil {
		return ErrNoDictionary
	}
	id, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if err := c.transport.SendCommand(id, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Query sends a command and returns the arguments of the named response
func (c *Client) Query(name string, args func(output protocol.OutputBuffer), response string) ([]byte, error) {
	if c.dictionary == nil {
		return nil, ErrNoDictionary
	}
	id, ok := c.responses[response]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResponse, response)
	}
	if err := c.Send(name, args); err != nil {
		return nil, err
	}
	payload, err := c.awaitID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return payload, nil
}

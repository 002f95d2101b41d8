package serial

import (
	"io"
)

// Port is a console's serial link.
// Native ports use github.com/tarm/serial; tests use net.Pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the console's UART (USB CDC ignores it)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the Arduino target's UART
const DefaultBaud = 115200

// DefaultConfig returns the settings the console firmware expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

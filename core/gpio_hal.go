package core

import "errors"

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// NoPin marks an optional line (status LED, buzzer) as not fitted
const NoPin GPIOPin = 0xFFFFFFFF

// ErrNoGPIO is returned when a console is built without a GPIO driver
var ErrNoGPIO = errors.New("gpio driver not configured")

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin reads the current pin state, reporting low on error.
	// The sampler calls this from interrupt context.
	ReadPin(pin GPIOPin) bool
}

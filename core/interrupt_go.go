//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On regular Go the tick source is a goroutine (simulator, Linux ticker),
// so masking is emulated with a lock shared by critical sections and the
// interrupt body. Critical sections must not be entered from inside
// runInterrupt.
var interruptMask sync.Mutex

// disableInterrupts holds off the tick goroutine until restoreInterrupts
func disableInterrupts() State {
	interruptMask.Lock()
	return 0
}

// restoreInterrupts lets the tick goroutine run again
func restoreInterrupts(state State) {
	interruptMask.Unlock()
}

// runInterrupt executes an interrupt body with interrupts masked
func runInterrupt(body func()) {
	interruptMask.Lock()
	defer interruptMask.Unlock()
	body()
}

// Package interrupt implements the machine's interrupt controller: 16
// fixed-priority IRQ lines feeding CPU-visible vector numbers through
// two base offsets, matching a merged master/slave PIC.
package interrupt

import "sync"

const (
	// MasterBase is the CPU vector assigned to IRQ 0-7.
	MasterBase = 0x08
	// SlaveBase is the CPU vector assigned to IRQ 8-15.
	SlaveBase = 0x70

	// NoInterrupt is returned by GetPendingInterrupt when no line is
	// pending.
	NoInterrupt = -1

	lineCount = 16
)

// Controller tracks pending IRQ lines and resolves the highest-priority
// one to a CPU vector. The pending-bit array is the only state shared
// between the CPU thread and the timer thread (spec section 5), so all
// access is serialized through a single mutex.
type Controller struct {
	mu      sync.Mutex
	pending [lineCount]bool
}

// New returns a controller with no lines pending.
func New() *Controller {
	return &Controller{}
}

// RequestIRQ sets line n pending. Values outside [0,16) are ignored.
func (c *Controller) RequestIRQ(n int) {
	if n < 0 || n >= lineCount {
		return
	}
	c.mu.Lock()
	c.pending[n] = true
	c.mu.Unlock()
}

// ClearIRQ clears line n. Values outside [0,16) are ignored.
func (c *Controller) ClearIRQ(n int) {
	if n < 0 || n >= lineCount {
		return
	}
	c.mu.Lock()
	c.pending[n] = false
	c.mu.Unlock()
}

// GetPendingInterrupt atomically finds the lowest-numbered pending
// line, clears it, and returns its CPU vector. Returns NoInterrupt if
// nothing is pending. Fixed priority, no masking, no auto-EOI.
func (c *Controller) GetPendingInterrupt() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for n := 0; n < lineCount; n++ {
		if c.pending[n] {
			c.pending[n] = false
			if n < 8 {
				return MasterBase + n
			}
			return SlaveBase + (n - 8)
		}
	}
	return NoInterrupt
}

// Package debugger exposes Go/Next/Stop/Tick/Snapshot control over a
// running machine.Machine, behind a mutex-guarded state machine, for
// the console command queue and the terminal renderer's key bindings.
package debugger

import (
	"sync"

	"github.com/valerio/go-bob/cpu"
	"github.com/valerio/go-bob/machine"
)

// State is the debugger's current mode.
type State int

const (
	// Running executes continuously, instruction boundary after
	// instruction boundary, until Stop or a fatal error.
	Running State = iota
	// Paused executes nothing until Go or Next is called.
	Paused
	// Step executes exactly one instruction boundary, then
	// transitions back to Paused.
	Step
)

// RegisterSnapshot is the full register file reported by the regs
// command.
type RegisterSnapshot = cpu.Registers

// Debugger wraps a *machine.Machine with a mutex-guarded run state.
type Debugger struct {
	m *machine.Machine

	mu    sync.RWMutex
	state State
}

// New returns a debugger over m, starting in the Running state.
func New(m *machine.Machine) *Debugger {
	return &Debugger{m: m, state: Running}
}

// State returns the current debugger state.
func (d *Debugger) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Go resumes continuous execution.
func (d *Debugger) Go() {
	d.mu.Lock()
	d.state = Running
	d.mu.Unlock()
}

// Stop halts the CPU loop (same as machine.Machine.Stop) and leaves
// the debugger in Paused.
func (d *Debugger) Stop() {
	d.mu.Lock()
	d.state = Paused
	d.mu.Unlock()
	d.m.Stop()
}

// Next requests exactly one instruction boundary be executed, then
// pauses.
func (d *Debugger) Next() {
	d.mu.Lock()
	d.state = Step
	d.mu.Unlock()
}

// Tick runs one iteration of the debugger's scheduling policy: a no-op
// when Paused, exactly one CPU.Step (then transition to Paused) when
// Step, or one CPU.Step when Running. It returns any fatal error from
// the CPU step.
func (d *Debugger) Tick() error {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	switch state {
	case Paused:
		return nil
	case Step:
		err := d.m.Step()
		d.mu.Lock()
		d.state = Paused
		d.mu.Unlock()
		return err
	default: // Running
		return d.m.Step()
	}
}

// Snapshot returns the machine's current register file.
func (d *Debugger) Snapshot() RegisterSnapshot {
	return d.m.CPU.Snapshot()
}

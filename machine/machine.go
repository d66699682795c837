// Package machine wires together memory, the interrupt controller, the
// I/O bus, the timer, the DMA engine, the disk, the BIOS bootstrap,
// and the CPU into a single runnable system, and owns the CPU loop's
// fatal-error recovery boundary.
package machine

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-bob/bios"
	"github.com/valerio/go-bob/cpu"
	"github.com/valerio/go-bob/disk"
	"github.com/valerio/go-bob/dma"
	"github.com/valerio/go-bob/interrupt"
	"github.com/valerio/go-bob/iobus"
	"github.com/valerio/go-bob/memory"
	"github.com/valerio/go-bob/timer"
)

// Config describes how to build a Machine.
type Config struct {
	DiskPath string
	Geometry disk.Geometry
	MemSize  int
	TimerHz  int
}

// Machine is the complete emulated system.
type Machine struct {
	Memory      *memory.Memory
	Interrupts  *interrupt.Controller
	IOBus       *iobus.Bus
	Timer       *timer.Timer
	DMA         *dma.Engine
	Disk        *disk.Disk
	BIOSServices *bios.Services
	CPU         *cpu.CPU

	running bool

	// LastFault is set by Run when the CPU loop stops due to a fatal
	// error (AddressOutOfRange, UnimplementedOpcode, or a recovered
	// disk.IOError); it is nil on a clean Stop.
	LastFault error
}

// New builds a fully wired Machine from cfg. The disk image is opened
// (created if absent) before anything else so a missing boot sector
// fails fast.
func New(cfg Config) (*Machine, error) {
	d, err := disk.Open(cfg.DiskPath, cfg.Geometry)
	if err != nil {
		return nil, fmt.Errorf("machine: opening disk: %w", err)
	}

	mem := memory.New(cfg.MemSize)
	ic := interrupt.New()
	bus := iobus.New()
	bus.RegisterRange(disk.PortData, disk.PortStatusCommand, d)

	dmaEngine := dma.New(mem, ic)
	tmr := timer.New(ic, cfg.TimerHz)

	c := cpu.New(mem, ic)
	services := bios.NewServices(mem, d, cfg.Geometry)
	c.SetIntercept(0x10, func(cc *cpu.CPU) { services.Int10(cc) })
	c.SetIntercept(0x13, func(cc *cpu.CPU) { services.Int13(cc) })
	c.SetIntercept(0x15, func(cc *cpu.CPU) { services.Int15(cc) })

	if err := bios.Load(mem, d); err != nil {
		return nil, fmt.Errorf("machine: loading BIOS: %w", err)
	}
	c.Reset()

	return &Machine{
		Memory:       mem,
		Interrupts:   ic,
		IOBus:        bus,
		Timer:        tmr,
		DMA:          dmaEngine,
		Disk:         d,
		BIOSServices: services,
		CPU:          c,
	}, nil
}

// Start starts the timer goroutine and marks the CPU loop runnable.
func (m *Machine) Start() {
	m.running = true
	m.Timer.Start()
}

// Stop halts the CPU loop at its next instruction boundary and stops
// the timer.
func (m *Machine) Stop() {
	m.running = false
	m.Timer.Stop()
}

// Running reports whether the CPU loop should keep executing.
func (m *Machine) Running() bool { return m.running }

// Step executes exactly one CPU instruction boundary.
func (m *Machine) Step() error {
	return m.CPU.Step()
}

// Run drives the CPU loop until Stop is called or a fatal error
// occurs. AddressOutOfRange and UnimplementedOpcode surface as an
// error from CPU.Step; disk.IOError surfaces as a panic (the iobus
// device interface has no error return) and is recovered here. Either
// way the loop stops, m.LastFault is set, and every other component
// (timer, disk register file) is left as-is for inspection.
func (m *Machine) Run() {
	defer func() {
		if r := recover(); r != nil {
			m.running = false
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("machine: fatal: %v", r)
			}
			m.LastFault = err
			slog.Error("machine halted on fatal error", "error", err)
		}
	}()

	for m.running {
		if err := m.CPU.Step(); err != nil {
			m.running = false
			m.LastFault = err
			slog.Error("machine halted on fatal error", "error", err)
			return
		}
	}
}

// Package cpu implements the 80386 real-mode instruction core: register
// file, segmented fetch/decode/execute, flag computation, and the
// interrupt-entry stack contract shared between software INT and
// hardware IRQ delivery.
package cpu

import (
	"fmt"

	"github.com/valerio/go-bob/interrupt"
)

// Memory is the subset of *memory.Memory the CPU needs.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Write8(addr uint32, value uint8) error
	Write16(addr uint32, value uint16) error
}

// InterruptSource is the subset of *interrupt.Controller the CPU needs
// to poll for a pending hardware interrupt at each instruction boundary.
type InterruptSource interface {
	GetPendingInterrupt() int
}

// InterceptFunc is a host-side routine that stands in for a vector's
// real-mode handler code (see SetIntercept).
type InterceptFunc func(c *CPU)

// UnimplementedOpcodeError is a fatal fault: the fetched opcode has no
// entry in the dispatch table.
type UnimplementedOpcodeError struct {
	Opcode byte
	CS     uint16
	IP     uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode %#02x at %04x:%04x", e.Opcode, e.CS, e.IP)
}

// Opcode is one instruction's execution body. It returns a non-nil
// error only for a fatal fault (unimplemented opcode, out-of-range
// memory access).
type Opcode func(*CPU) error

// CPU is the 80386 real-mode core: eight 32-bit general registers, six
// segment registers, instruction pointer, and FLAGS, operating over a
// shared physical Memory and polling an InterruptSource each step.
type CPU struct {
	a, b, c, d     uint32
	si, di, bp, sp uint32

	cs, ds, es, fs, gs, ss uint16
	ip                     uint32
	flags                  uint32

	mem Memory
	ic  InterruptSource

	intercepts map[uint8]InterceptFunc
}

// New returns a CPU wired to mem and ic, reset to the power-on state.
func New(mem Memory, ic InterruptSource) *CPU {
	c := &CPU{mem: mem, ic: ic, intercepts: make(map[uint8]InterceptFunc)}
	c.Reset()
	return c
}

// Reset restores the power-on register state: CS=0xF000, IP=0xFFF0,
// FLAGS=0x00000002, every other register zero.
func (c *CPU) Reset() {
	c.a, c.b, c.c, c.d = 0, 0, 0, 0
	c.si, c.di, c.bp, c.sp = 0, 0, 0, 0
	c.ds, c.es, c.fs, c.gs, c.ss = 0, 0, 0, 0, 0
	c.cs = 0xF000
	c.ip = 0xFFF0
	c.flags = uint32(flagReserved)
}

// SetIntercept installs a host-side handler for interrupt vector n,
// invoked in place of fetching real-mode code from the IVT target.
func (c *CPU) SetIntercept(n uint8, fn InterceptFunc) {
	c.intercepts[n] = fn
}

// SetCS sets the code segment register directly.
func (c *CPU) SetCS(v uint16) { c.cs = v }

// SetIP sets the instruction pointer directly.
func (c *CPU) SetIP(v uint16) { c.ip = uint32(v) }

// SetSS sets the stack segment register.
func (c *CPU) SetSS(v uint16) { c.ss = v }

// SetSP sets the stack pointer.
func (c *CPU) SetSP(v uint16) { c.sp = (c.sp &^ 0xFFFF) | uint32(v) }

// ES returns the extra segment register, used by the INT 13h handler
// to compute its destination address.
func (c *CPU) ES() uint16 { return c.es }

// SetES sets the extra segment register.
func (c *CPU) SetES(v uint16) { c.es = v }

// GetWord returns the low 16 bits of general register id (see the
// Reg* constants).
func (c *CPU) GetWord(id int) uint16 { return c.getWord(id) }

// SetWord stores v into the low 16 bits of general register id,
// preserving the high 16 bits of the 32-bit slot.
func (c *CPU) SetWord(id int, v uint16) { c.setWord(id, v) }

// EAX returns the full 32-bit A register, used by the INT 15h memory
// map handler to test for the E820 selector.
func (c *CPU) EAX() uint32 { return c.a }

// SetEAX replaces the full 32-bit A register.
func (c *CPU) SetEAX(v uint32) { c.a = v }

// SetECX replaces the full 32-bit C register.
func (c *CPU) SetECX(v uint32) { c.c = v }

// SetEDX replaces the full 32-bit D register.
func (c *CPU) SetEDX(v uint32) { c.d = v }

// Flags returns the 32-bit FLAGS register.
func (c *CPU) Flags() uint32 { return c.flags }

// SetFlags replaces the 32-bit FLAGS register.
func (c *CPU) SetFlags(v uint32) { c.flags = v }

// physAddr computes the physical address for seg:off. No wrap is
// applied at the 20-bit boundary: accesses above 1 MiB are permitted
// and reach the underlying memory's extended RAM.
func (c *CPU) physAddr(seg, off uint16) uint32 {
	return uint32(seg)<<4 + uint32(off)
}

// fetch8 reads the byte at CS:IP and advances IP by one, wrapping at
// 64KiB.
func (c *CPU) fetch8() (byte, error) {
	v, err := c.mem.Read8(c.physAddr(c.cs, uint16(c.ip)))
	if err != nil {
		return 0, err
	}
	c.ip = uint32(uint16(c.ip + 1))
	return v, nil
}

// fetch16 reads a little-endian word at CS:IP and advances IP by two.
func (c *CPU) fetch16() (uint16, error) {
	lo, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	hi, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// push16 decrements SP by two and writes v to SS:SP.
func (c *CPU) push16(v uint16) error {
	c.sp = uint32(uint16(c.sp - 2))
	return c.mem.Write16(c.physAddr(c.ss, uint16(c.sp)), v)
}

// pop16 reads a word from SS:SP and increments SP by two.
func (c *CPU) pop16() (uint16, error) {
	v, err := c.mem.Read16(c.physAddr(c.ss, uint16(c.sp)))
	if err != nil {
		return 0, err
	}
	c.sp = uint32(uint16(c.sp + 2))
	return v, nil
}

// Step executes one instruction boundary: if interrupts are enabled
// and a hardware interrupt is pending, it is delivered instead of a
// fetch; otherwise the next opcode is fetched and dispatched.
func (c *CPU) Step() error {
	if c.testFlag(FlagIF) {
		if v := c.ic.GetPendingInterrupt(); v != interrupt.NoInterrupt {
			return c.deliverInterrupt(uint8(v))
		}
	}

	faultCS, faultIP := c.cs, uint16(c.ip)
	op, err := c.fetch8()
	if err != nil {
		return err
	}

	fn, ok := opcodeTable[op]
	if !ok {
		return &UnimplementedOpcodeError{Opcode: op, CS: faultCS, IP: faultIP}
	}
	return fn(c)
}

// deliverInterrupt performs the stack-frame contract shared by
// hardware IRQ delivery and the INT instruction: push FLAGS, CS, IP,
// clear IF and TF, then load CS:IP from the IVT entry for n. If a host
// intercept is installed for n, it runs immediately in place of real
// handler code and an implicit IRET restores CS:IP:FLAGS, so control
// returns to the instruction after the one that triggered entry. CF is
// the one exception: it keeps the value the handler left, since the
// BIOS services report their result in CF.
func (c *CPU) deliverInterrupt(n uint8) error {
	if err := c.push16(uint16(c.flags)); err != nil {
		return err
	}
	if err := c.push16(c.cs); err != nil {
		return err
	}
	if err := c.push16(uint16(c.ip)); err != nil {
		return err
	}
	c.setFlag(FlagIF, false)
	c.setFlag(FlagTF, false)

	vectorAddr := uint32(n) * 4
	offset, err := c.mem.Read16(vectorAddr)
	if err != nil {
		return err
	}
	segment, err := c.mem.Read16(vectorAddr + 2)
	if err != nil {
		return err
	}

	if handler, ok := c.intercepts[n]; ok {
		handler(c)
		cf := c.flags & uint32(FlagCF)
		ip, err := c.pop16()
		if err != nil {
			return err
		}
		cs, err := c.pop16()
		if err != nil {
			return err
		}
		fl, err := c.pop16()
		if err != nil {
			return err
		}
		c.ip = uint32(ip)
		c.cs = cs
		c.flags = (c.flags &^ 0xFFFF) | (uint32(fl) &^ uint32(FlagCF)) | cf | uint32(flagReserved)
		return nil
	}

	c.cs = segment
	c.ip = uint32(offset)
	return nil
}

// RaiseSoftwareInterrupt delivers n as if by the INT instruction,
// for use by callers outside the normal fetch loop (e.g. tests).
func (c *CPU) RaiseSoftwareInterrupt(n uint8) error {
	return c.deliverInterrupt(n)
}

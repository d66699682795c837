package cpu

// Flag is a bit position in the 32-bit FLAGS register.
type Flag uint32

// Flag bit positions, matching the real-mode EFLAGS layout.
const (
	FlagCF       Flag = 1 << 0 // Carry
	flagReserved Flag = 1 << 1 // always 1
	FlagPF       Flag = 1 << 2 // Parity
	FlagAF       Flag = 1 << 4 // Auxiliary carry
	FlagZF       Flag = 1 << 6 // Zero
	FlagSF       Flag = 1 << 7 // Sign
	FlagTF       Flag = 1 << 8 // Trap
	FlagIF       Flag = 1 << 9 // Interrupt enable
	FlagDF       Flag = 1 << 10 // Direction
	FlagOF       Flag = 1 << 11 // Overflow
)

// Word-register ids, matching the standard x86 reg/rm encoding order:
// 0=A, 1=C, 2=D, 3=B, 4=SP, 5=BP, 6=SI, 7=DI.
const (
	RegA = iota
	RegC
	RegD
	RegB
	RegSP
	RegBP
	RegSI
	RegDI
)

// getWord returns the low 16 bits of general register id.
func (c *CPU) getWord(id int) uint16 {
	switch id {
	case RegA:
		return uint16(c.a)
	case RegC:
		return uint16(c.c)
	case RegD:
		return uint16(c.d)
	case RegB:
		return uint16(c.b)
	case RegSP:
		return uint16(c.sp)
	case RegBP:
		return uint16(c.bp)
	case RegSI:
		return uint16(c.si)
	case RegDI:
		return uint16(c.di)
	default:
		panic("cpu: invalid register id")
	}
}

// setWord stores v into the low 16 bits of general register id,
// preserving the high 16 bits of the 32-bit slot.
func (c *CPU) setWord(id int, v uint16) {
	switch id {
	case RegA:
		c.a = (c.a &^ 0xFFFF) | uint32(v)
	case RegC:
		c.c = (c.c &^ 0xFFFF) | uint32(v)
	case RegD:
		c.d = (c.d &^ 0xFFFF) | uint32(v)
	case RegB:
		c.b = (c.b &^ 0xFFFF) | uint32(v)
	case RegSP:
		c.sp = (c.sp &^ 0xFFFF) | uint32(v)
	case RegBP:
		c.bp = (c.bp &^ 0xFFFF) | uint32(v)
	case RegSI:
		c.si = (c.si &^ 0xFFFF) | uint32(v)
	case RegDI:
		c.di = (c.di &^ 0xFFFF) | uint32(v)
	default:
		panic("cpu: invalid register id")
	}
}

// setFlag sets or clears the bits in mask according to cond.
func (c *CPU) setFlag(mask Flag, cond bool) {
	if cond {
		c.flags |= uint32(mask)
	} else {
		c.flags &^= uint32(mask)
	}
}

// testFlag reports whether every bit in mask is set.
func (c *CPU) testFlag(mask Flag) bool {
	return c.flags&uint32(mask) == uint32(mask)
}

// Registers is a point-in-time snapshot of the CPU's visible state, for
// the debugger's regs command.
type Registers struct {
	A, B, C, D     uint32
	SI, DI, BP, SP uint32
	CS, DS, ES, FS, GS, SS uint16
	IP             uint16
	Flags          uint32
}

// Snapshot returns the current register file.
func (c *CPU) Snapshot() Registers {
	return Registers{
		A: c.a, B: c.b, C: c.c, D: c.d,
		SI: c.si, DI: c.di, BP: c.bp, SP: c.sp,
		CS: c.cs, DS: c.ds, ES: c.es, FS: c.fs, GS: c.gs, SS: c.ss,
		IP:    uint16(c.ip),
		Flags: c.flags,
	}
}

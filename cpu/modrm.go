package cpu

// modRM is a decoded ModR/M byte: either a direct register (mod==3) or
// a 16-bit effective address within the default data segment (DS).
// Segment override prefixes are not implemented (see UnimplementedOpcodeError).
type modRM struct {
	reg      int
	rm       int
	isMemory bool
	offset   uint16
}

// decodeModRM fetches a ModR/M byte, and for memory operands the
// displacement that follows it, computing the 16-bit effective address
// per the 16-bit addressing table.
func (c *CPU) decodeModRM() (modRM, error) {
	b, err := c.fetch8()
	if err != nil {
		return modRM{}, err
	}
	mod := b >> 6
	reg := int((b >> 3) & 7)
	rm := int(b & 7)

	if mod == 3 {
		return modRM{reg: reg, rm: rm, isMemory: false, offset: uint16(rm)}, nil
	}

	var base uint16
	switch rm {
	case 0:
		base = c.getWord(RegB) + c.getWord(RegSI)
	case 1:
		base = c.getWord(RegB) + c.getWord(RegDI)
	case 2:
		base = c.getWord(RegBP) + c.getWord(RegSI)
	case 3:
		base = c.getWord(RegBP) + c.getWord(RegDI)
	case 4:
		base = c.getWord(RegSI)
	case 5:
		base = c.getWord(RegDI)
	case 6:
		if mod == 0 {
			disp16, err := c.fetch16()
			if err != nil {
				return modRM{}, err
			}
			return modRM{reg: reg, rm: rm, isMemory: true, offset: disp16}, nil
		}
		base = c.getWord(RegBP)
	case 7:
		base = c.getWord(RegB)
	}

	switch mod {
	case 1:
		disp8, err := c.fetch8()
		if err != nil {
			return modRM{}, err
		}
		base += uint16(int16(int8(disp8)))
	case 2:
		disp16, err := c.fetch16()
		if err != nil {
			return modRM{}, err
		}
		base += disp16
	}

	return modRM{reg: reg, rm: rm, isMemory: true, offset: base}, nil
}

// readRM16 reads the 16-bit value an operand refers to: a register when
// m is a direct register, or the word at DS:offset when m is memory.
func (c *CPU) readRM16(m modRM) (uint16, error) {
	if !m.isMemory {
		return c.getWord(m.rm), nil
	}
	return c.mem.Read16(c.physAddr(c.ds, m.offset))
}

// writeRM16 writes v to the operand m refers to.
func (c *CPU) writeRM16(m modRM, v uint16) error {
	if !m.isMemory {
		c.setWord(m.rm, v)
		return nil
	}
	return c.mem.Write16(c.physAddr(c.ds, m.offset), v)
}

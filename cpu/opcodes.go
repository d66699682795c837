package cpu

// opcodeNOP implements 0x90 NOP.
func opcodeNOP(c *CPU) error { return nil }

// opcodeJmpFar implements 0xEA JMP ptr16:16: load IP then CS from the
// instruction stream and jump there directly, no stack involved.
func opcodeJmpFar(c *CPU) error {
	newIP, err := c.fetch16()
	if err != nil {
		return err
	}
	newCS, err := c.fetch16()
	if err != nil {
		return err
	}
	c.cs = newCS
	c.ip = uint32(newIP)
	return nil
}

// opcodeInt implements 0xCD ib INT imm8.
func opcodeInt(c *CPU) error {
	n, err := c.fetch8()
	if err != nil {
		return err
	}
	return c.deliverInterrupt(n)
}

// opcodeMovAXImm16 implements 0xB8 iw MOV AX, imm16.
func opcodeMovAXImm16(c *CPU) error {
	imm, err := c.fetch16()
	if err != nil {
		return err
	}
	c.setWord(RegA, imm)
	return nil
}

// opcodeAddAXImm16 implements 0x05 iw ADD AX, imm16.
func opcodeAddAXImm16(c *CPU) error {
	imm, err := c.fetch16()
	if err != nil {
		return err
	}
	a := c.getWord(RegA)
	result := a + imm
	c.setAddFlags(a, imm, result)
	c.setWord(RegA, result)
	return nil
}

// opcodeCmpAXImm16 implements 0x3D iw CMP AX, imm16.
func opcodeCmpAXImm16(c *CPU) error {
	imm, err := c.fetch16()
	if err != nil {
		return err
	}
	a := c.getWord(RegA)
	result := a - imm
	c.setSubFlags(a, imm, result)
	return nil
}

// opcodeCallRel16 implements 0xE8 cw CALL rel16: push the return
// address, then jump IP by the signed displacement.
func opcodeCallRel16(c *CPU) error {
	disp, err := c.fetch16()
	if err != nil {
		return err
	}
	if err := c.push16(uint16(c.ip)); err != nil {
		return err
	}
	c.ip = uint32(uint16(c.ip) + disp)
	return nil
}

// opcodeRet implements 0xC3 RET.
func opcodeRet(c *CPU) error {
	ip, err := c.pop16()
	if err != nil {
		return err
	}
	c.ip = uint32(ip)
	return nil
}

// opcodeMovR16Rm16 implements 0x8B /r MOV r16, r/m16.
func opcodeMovR16Rm16(c *CPU) error {
	m, err := c.decodeModRM()
	if err != nil {
		return err
	}
	v, err := c.readRM16(m)
	if err != nil {
		return err
	}
	c.setWord(m.reg, v)
	return nil
}

// opcodeMovRm16R16 implements 0x89 /r MOV r/m16, r16.
func opcodeMovRm16R16(c *CPU) error {
	m, err := c.decodeModRM()
	if err != nil {
		return err
	}
	return c.writeRM16(m, c.getWord(m.reg))
}

// opcodeLoop implements 0xE2 cb LOOP rel8: decrement CX, branch while
// nonzero.
func opcodeLoop(c *CPU) error {
	disp, err := c.fetch8()
	if err != nil {
		return err
	}
	cx := c.getWord(RegC) - 1
	c.setWord(RegC, cx)
	if cx != 0 {
		c.ip = uint32(uint16(c.ip) + uint16(int16(int8(disp))))
	}
	return nil
}

// stringStep returns the DF-dependent per-byte index delta: -1 when
// DF is set, +1 otherwise.
func (c *CPU) stringStep() uint16 {
	if c.testFlag(FlagDF) {
		return 0xFFFF
	}
	return 1
}

// opcodeStosb implements 0xAA STOSB: store AL to ES:DI, advance DI.
func opcodeStosb(c *CPU) error {
	addr := c.physAddr(c.es, c.getWord(RegDI))
	if err := c.mem.Write8(addr, byte(c.a)); err != nil {
		return err
	}
	c.setWord(RegDI, c.getWord(RegDI)+c.stringStep())
	return nil
}

// opcodeLodsb implements 0xAC LODSB: load AL from DS:SI, advance SI.
func opcodeLodsb(c *CPU) error {
	addr := c.physAddr(c.ds, c.getWord(RegSI))
	v, err := c.mem.Read8(addr)
	if err != nil {
		return err
	}
	c.a = (c.a &^ 0xFF) | uint32(v)
	c.setWord(RegSI, c.getWord(RegSI)+c.stringStep())
	return nil
}

// opcodeRepPrefix implements the 0xF3 REP prefix over MOVSB (0xA4),
// MOVSW (0xA5), and STOSB (0xAA): the entire repetition runs to
// completion within this one instruction boundary, so it is atomic
// with respect to interrupt delivery.
func opcodeRepPrefix(c *CPU) error {
	sub, err := c.fetch8()
	if err != nil {
		return err
	}

	step := c.stringStep()
	for c.getWord(RegC) != 0 {
		switch sub {
		case 0xA4: // MOVSB
			v, err := c.mem.Read8(c.physAddr(c.ds, c.getWord(RegSI)))
			if err != nil {
				return err
			}
			if err := c.mem.Write8(c.physAddr(c.es, c.getWord(RegDI)), v); err != nil {
				return err
			}
			c.setWord(RegSI, c.getWord(RegSI)+step)
			c.setWord(RegDI, c.getWord(RegDI)+step)
		case 0xA5: // MOVSW
			v, err := c.mem.Read16(c.physAddr(c.ds, c.getWord(RegSI)))
			if err != nil {
				return err
			}
			if err := c.mem.Write16(c.physAddr(c.es, c.getWord(RegDI)), v); err != nil {
				return err
			}
			c.setWord(RegSI, c.getWord(RegSI)+2*step)
			c.setWord(RegDI, c.getWord(RegDI)+2*step)
		case 0xAA: // STOSB
			if err := c.mem.Write8(c.physAddr(c.es, c.getWord(RegDI)), byte(c.a)); err != nil {
				return err
			}
			c.setWord(RegDI, c.getWord(RegDI)+step)
		default:
			return &UnimplementedOpcodeError{Opcode: sub, CS: c.cs, IP: uint16(c.ip)}
		}
		c.setWord(RegC, c.getWord(RegC)-1)
	}
	return nil
}

// makePush returns a PUSH r16 body for register id.
func makePush(id int) Opcode {
	return func(c *CPU) error { return c.push16(c.getWord(id)) }
}

// makePop returns a POP r16 body for register id.
func makePop(id int) Opcode {
	return func(c *CPU) error {
		v, err := c.pop16()
		if err != nil {
			return err
		}
		c.setWord(id, v)
		return nil
	}
}

// jccCondition reports whether the Jcc condition encoded by the low
// nibble of opcodes 0x70-0x7F holds.
func (c *CPU) jccCondition(nibble byte) bool {
	switch nibble {
	case 0x0: // JO
		return c.testFlag(FlagOF)
	case 0x1: // JNO
		return !c.testFlag(FlagOF)
	case 0x2: // JB/JC
		return c.testFlag(FlagCF)
	case 0x3: // JNB/JNC
		return !c.testFlag(FlagCF)
	case 0x4: // JZ/JE
		return c.testFlag(FlagZF)
	case 0x5: // JNZ/JNE
		return !c.testFlag(FlagZF)
	case 0x6: // JBE
		return c.testFlag(FlagCF) || c.testFlag(FlagZF)
	case 0x7: // JA
		return !c.testFlag(FlagCF) && !c.testFlag(FlagZF)
	case 0x8: // JS
		return c.testFlag(FlagSF)
	case 0x9: // JNS
		return !c.testFlag(FlagSF)
	case 0xA: // JP
		return c.testFlag(FlagPF)
	case 0xB: // JNP
		return !c.testFlag(FlagPF)
	case 0xC: // JL
		return c.testFlag(FlagSF) != c.testFlag(FlagOF)
	case 0xD: // JGE
		return c.testFlag(FlagSF) == c.testFlag(FlagOF)
	case 0xE: // JLE
		return c.testFlag(FlagZF) || c.testFlag(FlagSF) != c.testFlag(FlagOF)
	case 0xF: // JG
		return !c.testFlag(FlagZF) && c.testFlag(FlagSF) == c.testFlag(FlagOF)
	}
	return false
}

// makeJcc returns a Jcc rel8 body for the condition nibble.
func makeJcc(nibble byte) Opcode {
	return func(c *CPU) error {
		disp, err := c.fetch8()
		if err != nil {
			return err
		}
		if c.jccCondition(nibble) {
			c.ip = uint32(uint16(c.ip) + uint16(int16(int8(disp))))
		}
		return nil
	}
}

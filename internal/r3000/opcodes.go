package r3000

import "fmt"

// OpcodeFunc executes one decoded instruction. branching reports whether
// this instruction was itself issued from a branch-delay slot, needed for
// Cause.BD if the instruction raises an exception.
type OpcodeFunc func(c *CPU, instr Instruction, branching bool) (Hazard, error)

// opcodeTable is a map literal keyed by the 6-bit primary opcode field,
// mirroring the teacher's opcodeMap/opcodeCBMap precedent of a flat
// map[uint8]Opcode dispatch table. Rare/CP2-internal opcodes route to
// unimplemented, which reports a fatal controller error rather than
// panicking, matching the error-handling design's "surfaced" category.
var opcodeTable = map[uint8]OpcodeFunc{
	0x00: opSPECIAL,
	0x01: opBCONDZ,
	0x02: opJ,
	0x03: opJAL,
	0x04: opBEQ,
	0x05: opBNE,
	0x06: opBLEZ,
	0x07: opBGTZ,
	0x08: opADDI,
	0x09: opADDIU,
	0x0A: opSLTI,
	0x0B: opSLTIU,
	0x0C: opANDI,
	0x0D: opORI,
	0x0E: opXORI,
	0x0F: opLUI,
	0x10: opCOP0,
	0x12: opCOP2,
	0x20: opLB,
	0x21: opLH,
	0x23: opLW,
	0x24: opLBU,
	0x25: opLHU,
	0x28: opSB,
	0x29: opSH,
	0x2B: opSW,
}

var specialTable = map[uint8]OpcodeFunc{
	0x00: opSLL,
	0x02: opSRL,
	0x03: opSRA,
	0x04: opSLLV,
	0x06: opSRLV,
	0x07: opSRAV,
	0x08: opJR,
	0x09: opJALR,
	0x0C: opSYSCALL,
	0x0D: opBREAK,
	0x10: opMFHI,
	0x11: opMTHI,
	0x12: opMFLO,
	0x13: opMTLO,
	0x18: opMULT,
	0x19: opMULTU,
	0x1A: opDIV,
	0x1B: opDIVU,
	0x20: opADD,
	0x21: opADDU,
	0x22: opSUB,
	0x23: opSUBU,
	0x24: opAND,
	0x25: opOR,
	0x26: opXOR,
	0x27: opNOR,
	0x2A: opSLT,
	0x2B: opSLTU,
}

var cop0Table = map[uint8]OpcodeFunc{
	0x00: opMFC0,
	0x04: opMTC0,
	0x10: opRFE,
}

// cyclesDefault/cyclesMult/cyclesDiv mirror the per-instruction cycle cost the original
// instruction_lookup table carries alongside its function pointer. Every
// instruction is single-cycle on this core's fully pipelined model except
// MULT/MULTU/DIV/DIVU, whose real hardware latency (roughly 12/36 cycles
// depending on operand magnitude) dwarfs every other opcode; a fixed
// worst-case figure is used rather than the data-dependent real timing,
// since that precision isn't observable from outside the pipeline.
const (
	cyclesDefault = 1
	cyclesMult    = 13
	cyclesDiv     = 36
)

var specialCycles = map[uint8]int{
	0x18: cyclesMult, // MULT
	0x19: cyclesMult, // MULTU
	0x1A: cyclesDiv,  // DIV
	0x1B: cyclesDiv,  // DIVU
}

// cyclesFor resolves the base cycle cost for a decoded instruction,
// following the same opcode/funct/rs nesting execute uses to dispatch it.
func cyclesFor(instr Instruction) int {
	switch instr.Opcode {
	case 0x00: // SPECIAL
		if c, ok := specialCycles[instr.Funct]; ok {
			return c
		}
	}
	return cyclesDefault
}

func unimplemented(format string, args ...any) (Hazard, error) {
	return Hazard{}, fmt.Errorf("r3000: "+format, args...)
}

func opSPECIAL(c *CPU, instr Instruction, branching bool) (Hazard, error) {
	fn, ok := specialTable[instr.Funct]
	if !ok {
		return unimplemented("unimplemented SPECIAL funct 0x%02X", instr.Funct)
	}
	return fn(c, instr, branching)
}

func opCOP0(c *CPU, instr Instruction, branching bool) (Hazard, error) {
	fn, ok := cop0Table[instr.RS]
	if !ok {
		return unimplemented("unimplemented COP0 rs-field 0x%02X", instr.RS)
	}
	return fn(c, instr, branching)
}

// opCOP2 leaves GTE geometry transforms unimplemented (out of scope); any
// actual CP2 instruction dispatch is the responsibility of an external
// collaborator per the purpose/scope section.
func opCOP2(c *CPU, instr Instruction, branching bool) (Hazard, error) {
	return unimplemented("CP2/GTE dispatch not modeled (funct 0x%02X)", instr.Funct)
}

// --- SPECIAL: shifts, register ALU, mult/div, hi/lo ---

func opSLL(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RT)<<instr.Shamt)
	return Hazard{}, nil
}

func opSRL(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RT)>>instr.Shamt)
	return Hazard{}, nil
}

func opSRA(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, uint32(int32(c.GPR(instr.RT))>>instr.Shamt))
	return Hazard{}, nil
}

func opSLLV(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RT)<<(c.GPR(instr.RS)&0x1F))
	return Hazard{}, nil
}

func opSRLV(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RT)>>(c.GPR(instr.RS)&0x1F))
	return Hazard{}, nil
}

func opSRAV(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, uint32(int32(c.GPR(instr.RT))>>(c.GPR(instr.RS)&0x1F)))
	return Hazard{}, nil
}

func opJR(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setBranch(c.GPR(instr.RS))
	return Hazard{}, nil
}

func opJALR(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	link := c.PC + 4
	c.setBranch(c.GPR(instr.RS))
	c.setGPR(instr.RD, link)
	return Hazard{}, nil
}

func opSYSCALL(c *CPU, instr Instruction, branching bool) (Hazard, error) {
	c.raiseException(ExcSyscall, branching)
	return Hazard{}, nil
}

func opBREAK(c *CPU, instr Instruction, branching bool) (Hazard, error) {
	c.raiseException(ExcBreak, branching)
	return Hazard{}, nil
}

func opMFHI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.hi)
	return Hazard{}, nil
}

func opMTHI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.hi = c.GPR(instr.RS)
	return Hazard{}, nil
}

func opMFLO(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.lo)
	return Hazard{}, nil
}

func opMTLO(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.lo = c.GPR(instr.RS)
	return Hazard{}, nil
}

func opMULT(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	result := int64(int32(c.GPR(instr.RS))) * int64(int32(c.GPR(instr.RT)))
	c.hi, c.lo = uint32(result>>32), uint32(result)
	return Hazard{}, nil
}

func opMULTU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	result := uint64(c.GPR(instr.RS)) * uint64(c.GPR(instr.RT))
	c.hi, c.lo = uint32(result>>32), uint32(result)
	return Hazard{}, nil
}

func opDIV(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	rs, rt := int32(c.GPR(instr.RS)), int32(c.GPR(instr.RT))
	if rt == 0 {
		c.hi, c.lo = uint32(rs), 0xFFFFFFFF
		return Hazard{}, nil
	}
	c.lo, c.hi = uint32(rs/rt), uint32(rs%rt)
	return Hazard{}, nil
}

func opDIVU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	rs, rt := c.GPR(instr.RS), c.GPR(instr.RT)
	if rt == 0 {
		c.hi, c.lo = rs, 0xFFFFFFFF
		return Hazard{}, nil
	}
	c.lo, c.hi = rs/rt, rs%rt
	return Hazard{}, nil
}

func opADD(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, uint32(int32(c.GPR(instr.RS))+int32(c.GPR(instr.RT))))
	return Hazard{}, nil
}

func opADDU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RS)+c.GPR(instr.RT))
	return Hazard{}, nil
}

func opSUB(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, uint32(int32(c.GPR(instr.RS))-int32(c.GPR(instr.RT))))
	return Hazard{}, nil
}

func opSUBU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RS)-c.GPR(instr.RT))
	return Hazard{}, nil
}

func opAND(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RS)&c.GPR(instr.RT))
	return Hazard{}, nil
}

func opOR(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RS)|c.GPR(instr.RT))
	return Hazard{}, nil
}

func opXOR(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, c.GPR(instr.RS)^c.GPR(instr.RT))
	return Hazard{}, nil
}

func opNOR(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RD, ^(c.GPR(instr.RS) | c.GPR(instr.RT)))
	return Hazard{}, nil
}

func opSLT(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v := uint32(0)
	if int32(c.GPR(instr.RS)) < int32(c.GPR(instr.RT)) {
		v = 1
	}
	c.setGPR(instr.RD, v)
	return Hazard{}, nil
}

func opSLTU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v := uint32(0)
	if c.GPR(instr.RS) < c.GPR(instr.RT) {
		v = 1
	}
	c.setGPR(instr.RD, v)
	return Hazard{}, nil
}

// --- branches and jumps ---

func branchIf(c *CPU, cond bool, offset uint32) {
	if cond {
		c.setBranch(c.PC + offset)
	}
}

func opBEQ(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	branchIf(c, c.GPR(instr.RS) == c.GPR(instr.RT), instr.SignExtendImm()<<2)
	return Hazard{}, nil
}

func opBNE(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	branchIf(c, c.GPR(instr.RS) != c.GPR(instr.RT), instr.SignExtendImm()<<2)
	return Hazard{}, nil
}

func opBLEZ(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	branchIf(c, int32(c.GPR(instr.RS)) <= 0, instr.SignExtendImm()<<2)
	return Hazard{}, nil
}

func opBGTZ(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	branchIf(c, int32(c.GPR(instr.RS)) > 0, instr.SignExtendImm()<<2)
	return Hazard{}, nil
}

// opBCONDZ handles the BLTZ/BGEZ/BLTZAL/BGEZAL family, selected by the rt field.
func opBCONDZ(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	link := instr.RT&0x10 != 0
	gez := instr.RT&0x01 != 0
	rs := int32(c.GPR(instr.RS))
	cond := rs < 0
	if gez {
		cond = rs >= 0
	}
	if link {
		c.setGPR(31, c.PC+4)
	}
	branchIf(c, cond, instr.SignExtendImm()<<2)
	return Hazard{}, nil
}

func opJ(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	target := (c.PC & 0xF000_0000) | (instr.Target << 2)
	c.setBranch(target)
	return Hazard{}, nil
}

func opJAL(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	target := (c.PC & 0xF000_0000) | (instr.Target << 2)
	c.setGPR(31, c.PC+4)
	c.setBranch(target)
	return Hazard{}, nil
}

// --- immediate ALU ---

func opADDI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, uint32(int32(c.GPR(instr.RS))+int32(instr.SignExtendImm())))
	return Hazard{}, nil
}

func opADDIU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, c.GPR(instr.RS)+instr.SignExtendImm())
	return Hazard{}, nil
}

func opSLTI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v := uint32(0)
	if int32(c.GPR(instr.RS)) < int32(instr.SignExtendImm()) {
		v = 1
	}
	c.setGPR(instr.RT, v)
	return Hazard{}, nil
}

func opSLTIU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v := uint32(0)
	if c.GPR(instr.RS) < instr.SignExtendImm() {
		v = 1
	}
	c.setGPR(instr.RT, v)
	return Hazard{}, nil
}

func opANDI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, c.GPR(instr.RS)&uint32(instr.Imm16))
	return Hazard{}, nil
}

func opORI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, c.GPR(instr.RS)|uint32(instr.Imm16))
	return Hazard{}, nil
}

func opXORI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, c.GPR(instr.RS)^uint32(instr.Imm16))
	return Hazard{}, nil
}

func opLUI(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.setGPR(instr.RT, uint32(instr.Imm16)<<16)
	return Hazard{}, nil
}

// --- loads/stores: loads observe a one-slot load delay ---

func opLB(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, hz := c.loadU8(c.GPR(instr.RS) + instr.SignExtendImm())
	if !hz.IsNone() {
		return hz, nil
	}
	c.scheduleLoadDelay(instr.RT, uint32(int32(int8(v))))
	return Hazard{}, nil
}

func opLBU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, hz := c.loadU8(c.GPR(instr.RS) + instr.SignExtendImm())
	if !hz.IsNone() {
		return hz, nil
	}
	c.scheduleLoadDelay(instr.RT, uint32(v))
	return Hazard{}, nil
}

func opLH(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, hz := c.loadU16(c.GPR(instr.RS) + instr.SignExtendImm())
	if !hz.IsNone() {
		return hz, nil
	}
	c.scheduleLoadDelay(instr.RT, uint32(int32(int16(v))))
	return Hazard{}, nil
}

func opLHU(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, hz := c.loadU16(c.GPR(instr.RS) + instr.SignExtendImm())
	if !hz.IsNone() {
		return hz, nil
	}
	c.scheduleLoadDelay(instr.RT, uint32(v))
	return Hazard{}, nil
}

func opLW(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, hz := c.loadU32(c.GPR(instr.RS) + instr.SignExtendImm())
	if !hz.IsNone() {
		return hz, nil
	}
	c.scheduleLoadDelay(instr.RT, v)
	return Hazard{}, nil
}

func opSB(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	return c.storeU8(c.GPR(instr.RS)+instr.SignExtendImm(), uint8(c.GPR(instr.RT))), nil
}

func opSH(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	return c.storeU16(c.GPR(instr.RS)+instr.SignExtendImm(), uint16(c.GPR(instr.RT))), nil
}

func opSW(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	return c.storeU32(c.GPR(instr.RS)+instr.SignExtendImm(), c.GPR(instr.RT)), nil
}

// --- COP0 ---

func opMFC0(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	v, err := c.cp0.readRegister(instr.RD)
	if err != nil {
		return Hazard{}, err
	}
	c.scheduleLoadDelay(instr.RT, v)
	return Hazard{}, nil
}

func opMTC0(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	return Hazard{}, c.cp0.writeRegister(instr.RD, c.GPR(instr.RT))
}

func opRFE(c *CPU, instr Instruction, _ bool) (Hazard, error) {
	c.cp0.popStatusStack()
	return Hazard{}, nil
}

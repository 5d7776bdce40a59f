package r3000

// Instruction is a decoded MIPS I word. Every field is always populated;
// handlers read only the fields relevant to their format (R/I/J).
type Instruction struct {
	Raw    uint32
	Opcode uint8
	RS     uint8
	RT     uint8
	RD     uint8
	Shamt  uint8
	Funct  uint8
	Imm16  uint16
	Target uint32 // 26-bit jump target, word-aligned
}

func Decode(word uint32) Instruction {
	return Instruction{
		Raw:    word,
		Opcode: uint8(word >> 26),
		RS:     uint8((word >> 21) & 0x1F),
		RT:     uint8((word >> 16) & 0x1F),
		RD:     uint8((word >> 11) & 0x1F),
		Shamt:  uint8((word >> 6) & 0x1F),
		Funct:  uint8(word & 0x3F),
		Imm16:  uint16(word & 0xFFFF),
		Target: word & 0x03FF_FFFF,
	}
}

// SignExtendImm sign-extends the instruction's 16-bit immediate.
func (i Instruction) SignExtendImm() uint32 {
	return uint32(int32(int16(i.Imm16)))
}

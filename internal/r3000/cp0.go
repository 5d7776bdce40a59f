package r3000

import (
	"fmt"

	"github.com/cantrip-labs/psxcore/internal/addr"
)

// ExcCode values for the exception kinds this core fully models; any
// other value is surfaced as a fatal controller error rather than a
// fabricated handler.
const (
	ExcInterrupt = 0
	ExcSyscall   = 8
	ExcBreak     = 9
)

// CP0 is the system-control coprocessor's register file: status/cause/EPC
// plus the debug registers, modeled as plain fields since CP0 has no
// pipeline effects of its own beyond exception entry/return.
type CP0 struct {
	BPC, BDA, JumpDest, DCIC, BDAM, BPCM uint32
	Status, Cause                       uint32
	EPC                                 uint32
	PRId                                uint32

	// intcPending is an internal flag distinct from the visible Cause.IP
	// field, set by the INTC's masked-OR line and consulted by the
	// interrupt-recognition step.
	intcPending bool
}

// Status register bitfields.
const (
	statusIEc = 0 // current interrupt enable
	statusKUc = 1 // current kernel/user mode
	statusIEp = 2
	statusKUp = 3
	statusIEo = 4
	statusKUo = 5
	statusIM  = 8 // 8-bit interrupt mask, bits 8-15
	statusBEV = 22
	statusTS  = 21
)

// Cause register bitfields.
const (
	causeExcCode = 2 // 5 bits, 2-6
	causeIP      = 8 // 8 bits, 8-15 (bit 10 is the INTC line)
	causeCE      = 28
	causeBD      = 31
)

func newCP0() CP0 {
	c := CP0{PRId: 0x0000_0002}
	c.Status = setBits(c.Status, statusBEV, 1, 1)
	c.Status = setBits(c.Status, statusTS, 1, 1)
	return c
}

func setBits(v uint32, pos uint, width uint, val uint32) uint32 {
	mask := uint32(1)<<width - 1
	return (v &^ (mask << pos)) | ((val & mask) << pos)
}

func getBits(v uint32, pos uint, width uint) uint32 {
	mask := uint32(1)<<width - 1
	return (v >> pos) & mask
}

// SetIntcLine feeds the INTC's aggregated line into CP0's pending flag
// and mirrors it into Cause.IP bit 10, which interruptPending reads.
func (c *CP0) SetIntcLine(asserted bool) {
	c.intcPending = asserted
	bitVal := uint32(0)
	if asserted {
		bitVal = 1
	}
	c.Cause = setBits(c.Cause, causeIP+2, 1, bitVal)
}

// interruptPending reports whether Status.IEC=1 and (Status.IM & Cause.IP) != 0.
func (c *CP0) interruptPending() bool {
	if getBits(c.Status, statusIEc, 1) == 0 {
		return false
	}
	im := getBits(c.Status, statusIM, 8)
	ip := getBits(c.Cause, causeIP, 8)
	return im&ip != 0
}

// pushStatusStack shifts the low 6 bits of Status left by 2, saving
// current->previous, previous->old, clearing the new current pair.
func (c *CP0) pushStatusStack() {
	low6 := c.Status & 0x3F
	c.Status = (c.Status &^ 0x3F) | ((low6 << 2) & 0x3F)
}

// popStatusStack reverses pushStatusStack on return-from-exception:
// previous->current, old->previous, leaving the old pair unchanged.
func (c *CP0) popStatusStack() {
	c.Status = (c.Status &^ 0xF) | ((c.Status >> 2) & 0xF)
}

// enterException fills EPC/Cause/Status per the documented algorithm and
// returns the vector PC: save current PC (minus 4 when not an interrupt)
// into EPC; if branching, set Cause.BD and decrement EPC by one
// instruction; push the Status KU/IE stack; write Cause.ExcCode; select
// the vector based on Status.BEV.
func (c *CP0) enterException(excCode uint32, pc uint32, branching bool) uint32 {
	epc := pc
	if excCode != ExcInterrupt {
		epc -= 4
	}
	bd := uint32(0)
	if branching {
		bd = 1
		epc -= 4
	}
	c.Cause = setBits(c.Cause, causeBD, 1, bd)
	c.Cause = setBits(c.Cause, causeExcCode, 5, excCode)
	c.EPC = epc

	c.pushStatusStack()

	if getBits(c.Status, statusBEV, 1) == 0 {
		return addr.ExceptionVectorGeneral
	}
	return addr.ExceptionVectorBEV
}

// returnFromException pops the Status stack and returns EPC as the
// resumption PC.
func (c *CP0) returnFromException() uint32 {
	c.popStatusStack()
	return c.EPC
}

// CP0 register numbers addressable via MFC0/MTC0.
const (
	regBPC      = 3
	regBDA      = 5
	regJumpDest = 6
	regDCIC     = 7
	regBDAM     = 9
	regBPCM     = 11
	regStatus   = 12
	regCause    = 13
	regEPC      = 14
	regPRId     = 15
)

func (c *CP0) readRegister(n uint8) (uint32, error) {
	switch n {
	case regBPC:
		return c.BPC, nil
	case regBDA:
		return c.BDA, nil
	case regJumpDest:
		return c.JumpDest, nil
	case regDCIC:
		return c.DCIC, nil
	case regBDAM:
		return c.BDAM, nil
	case regBPCM:
		return c.BPCM, nil
	case regStatus:
		return c.Status, nil
	case regCause:
		return c.Cause, nil
	case regEPC:
		return c.EPC, nil
	case regPRId:
		return c.PRId, nil
	default:
		return 0, fmt.Errorf("r3000: read of unmodeled CP0 register %d", n)
	}
}

func (c *CP0) writeRegister(n uint8, v uint32) error {
	switch n {
	case regBPC:
		c.BPC = v
	case regBDA:
		c.BDA = v
	case regJumpDest:
		c.JumpDest = v
	case regDCIC:
		c.DCIC = v
	case regBDAM:
		c.BDAM = v
	case regBPCM:
		c.BPCM = v
	case regStatus:
		c.Status = v
	case regCause:
		// only the software-settable bits (IP[1:0]) are writable; hardware
		// bits are left untouched.
		c.Cause = (c.Cause &^ 0x300) | (v & 0x300)
	case regEPC:
		c.EPC = v
	case regPRId:
		// read-only
	default:
		return fmt.Errorf("r3000: write of unmodeled CP0 register %d", n)
	}
	return nil
}

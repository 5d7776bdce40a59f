// Package r3000 implements the MIPS R3000-compatible interpreter: the
// fetch/decode/execute loop, branch-delay and load-delay slots, the CP0
// system-control coprocessor with exception entry/return, and an opaque
// CP2 (GTE) register file with side effects localized to specific ops.
package r3000

import (
	"fmt"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
)

// ClockSpeedHz is the R3000's native instruction clock, used to convert a
// wall-clock time slice into a cycle budget for Tick's caller.
const ClockSpeedHz float64 = 33_868_800

// Memory is the narrow view of the bus the CPU needs. BusLocked reports
// whether any DMA channel currently holds the bus, per the bus-locked
// precondition every access must observe before attempting its own read
// or write.
type Memory interface {
	BusLocked() bool
	ReadU32(addr uint32) (uint32, error)
	WriteU32(addr uint32, v uint32) error
	ReadU16(addr uint32) (uint16, error)
	WriteU16(addr uint32, v uint16) error
	ReadU8(addr uint32) (uint8, error)
	WriteU8(addr uint32, v uint8) error
}

// branchDelay tracks a pending branch/jump target; it is either empty or
// (target, slots>=0) and cannot be set while already pending.
type branchDelay struct {
	pending bool
	target  uint32
	slots   int
}

// loadDelay defers a load's GPR write until the next instruction's issue.
type loadDelay struct {
	pending bool
	reg     uint8
	value   uint32
}

// GTE is an opaque CP2 register file; its side effects are localized to
// specific ops by callers outside this package (geometry transforms are
// out of scope here).
type GTE struct {
	Data    [32]uint32
	Control [32]uint32
	Flag    uint32
}

// CPU holds the full R3000 state: GPRs, PC, HI/LO, CP0, CP2, and the two
// in-flight delay slots.
type CPU struct {
	PC       uint32
	gpr      [32]uint32
	hi, lo   uint32
	cp0      CP0
	gte      GTE
	mem      Memory
	branch   branchDelay
	loadSlot loadDelay

	// branching records whether the instruction about to retire
	// was itself issued from within a branch-delay slot, needed by
	// exception entry to set Cause.BD correctly.
	branching bool
}

// New constructs a CPU wired to the given bus view, with hardware-reset
// defaults already applied via Reset.
func New(mem Memory) *CPU {
	c := &CPU{mem: mem}
	c.Reset()
	return c
}

// Reset applies hardware-reset defaults: PC=0xBFC0_0000, Status.BEV=1,
// Status.TS=1, gpr[0]=0.
func (c *CPU) Reset() {
	c.PC = addr.ResetVector
	c.cp0 = newCP0()
	c.gpr = [32]uint32{}
	c.branch = branchDelay{}
	c.loadSlot = loadDelay{}
}

func (c *CPU) GPR(n uint8) uint32 {
	if n == 0 {
		return 0
	}
	return c.gpr[n]
}

func (c *CPU) setGPR(n uint8, v uint32) {
	if n == 0 {
		return
	}
	c.gpr[n] = v
}

// CP0 exposes the coprocessor-0 register file for register-window access.
func (c *CPU) CP0() *CP0 { return &c.cp0 }

// GTE exposes the opaque CP2 register file.
func (c *CPU) GTE() *GTE { return &c.gte }

// SetIntcLine feeds the INTC's aggregated output into CP0's pending flag.
func (c *CPU) SetIntcLine(asserted bool) { c.cp0.SetIntcLine(asserted) }

// Tick executes exactly one pipeline step: interrupt recognition, branch
// resolution, fetch/decode/execute. It returns the cycle cost of the step
// taken (always at least 1, even on a hazard, so a caller budgeting
// cycles against wall-clock time always makes progress) and a fatal error
// only for instructions or registers this core does not model
// (unimplemented opcodes, SPECIAL functs and COP0 rs fields, CP2
// instructions, unmodeled CP0 registers). An exception taken while
// branching is not an error: it sets Cause.BD. A Hazard return is
// recoverable and simply retried on the next call.
func (c *CPU) Tick() (int, error) {
	if c.cp0.interruptPending() && !c.branching {
		c.raiseException(ExcInterrupt, false)
		return cyclesDefault, nil
	}

	prePC := c.PC
	preBranch := c.branch

	if c.branch.pending {
		c.branch.slots--
		if c.branch.slots < 0 {
			c.PC = c.branch.target
			c.branch = branchDelay{}
		}
	}

	fetchPC := c.PC
	word, hz := c.loadU32(fetchPC)
	if !hz.IsNone() {
		c.PC = prePC
		c.branch = preBranch
		slog.Debug("cpu hazard on fetch", "hazard", hz.String())
		return cyclesDefault, nil
	}

	instr := Decode(word)
	c.PC = fetchPC + 4
	wasBranching := preBranch.pending

	cycles, hazard, err := c.execute(instr, wasBranching)
	if err != nil {
		return cycles, err
	}
	if !hazard.IsNone() {
		c.PC = prePC
		c.branch = preBranch
		slog.Debug("cpu hazard on execute", "hazard", hazard.String())
		return cycles, nil
	}

	c.resolveLoadDelay()
	c.branching = wasBranching
	return cycles, nil
}

func (c *CPU) resolveLoadDelay() {
	if c.loadSlot.pending {
		c.setGPR(c.loadSlot.reg, c.loadSlot.value)
		c.loadSlot = loadDelay{}
	}
}

// scheduleLoadDelay defers a load's GPR write to the next instruction's
// issue, and immediately resolves any previously pending load (matching
// hardware's one-slot-deep load delay).
func (c *CPU) scheduleLoadDelay(reg uint8, value uint32) {
	c.resolveLoadDelay()
	c.loadSlot = loadDelay{pending: true, reg: reg, value: value}
}

// setBranch sets the branch-delay slot to (target, 1); it must not be
// called while a branch is already pending.
func (c *CPU) setBranch(target uint32) {
	c.branch = branchDelay{pending: true, target: target, slots: 1}
}

func (c *CPU) raiseException(excCode uint32, branching bool) {
	vector := c.cp0.enterException(excCode, c.PC, branching)
	c.PC = vector
	c.branch = branchDelay{}
}

// ReturnFromException implements RFE: pop the Status stack and resume at EPC.
func (c *CPU) ReturnFromException() {
	c.PC = c.cp0.returnFromException()
}

func (c *CPU) loadU32(address uint32) (uint32, Hazard) {
	if c.mem.BusLocked() {
		return 0, Hazard{Kind: HazardBusLockedMemoryRead, Addr: address}
	}
	v, err := c.mem.ReadU32(address)
	if err != nil {
		return 0, Hazard{Kind: HazardMemoryRead, Addr: address}
	}
	return v, Hazard{}
}

func (c *CPU) storeU32(address uint32, v uint32) Hazard {
	if c.mem.BusLocked() {
		return Hazard{Kind: HazardBusLockedMemoryWrite, Addr: address}
	}
	if err := c.mem.WriteU32(address, v); err != nil {
		return Hazard{Kind: HazardMemoryWrite, Addr: address}
	}
	return Hazard{}
}

func (c *CPU) loadU16(address uint32) (uint16, Hazard) {
	if c.mem.BusLocked() {
		return 0, Hazard{Kind: HazardBusLockedMemoryRead, Addr: address}
	}
	v, err := c.mem.ReadU16(address)
	if err != nil {
		return 0, Hazard{Kind: HazardMemoryRead, Addr: address}
	}
	return v, Hazard{}
}

func (c *CPU) storeU16(address uint32, v uint16) Hazard {
	if c.mem.BusLocked() {
		return Hazard{Kind: HazardBusLockedMemoryWrite, Addr: address}
	}
	if err := c.mem.WriteU16(address, v); err != nil {
		return Hazard{Kind: HazardMemoryWrite, Addr: address}
	}
	return Hazard{}
}

func (c *CPU) loadU8(address uint32) (uint8, Hazard) {
	if c.mem.BusLocked() {
		return 0, Hazard{Kind: HazardBusLockedMemoryRead, Addr: address}
	}
	v, err := c.mem.ReadU8(address)
	if err != nil {
		return 0, Hazard{Kind: HazardMemoryRead, Addr: address}
	}
	return v, Hazard{}
}

func (c *CPU) storeU8(address uint32, v uint8) Hazard {
	if c.mem.BusLocked() {
		return Hazard{Kind: HazardBusLockedMemoryWrite, Addr: address}
	}
	if err := c.mem.WriteU8(address, v); err != nil {
		return Hazard{Kind: HazardMemoryWrite, Addr: address}
	}
	return Hazard{}
}

func (c *CPU) execute(instr Instruction, branching bool) (int, Hazard, error) {
	fn, ok := opcodeTable[instr.Opcode]
	if !ok {
		return cyclesDefault, Hazard{}, fmt.Errorf("r3000: unimplemented opcode 0x%02X (word 0x%08X)", instr.Opcode, instr.Raw)
	}
	hz, err := fn(c, instr, branching)
	return cyclesFor(instr), hz, err
}

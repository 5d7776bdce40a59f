// Package timers implements the console's three programmable timers:
// COUNT/MODE/TARGET registers, four selectable clock sources, and the
// sticky target/overflow bits that drive the INTC timer lines.
package timers

import (
	"fmt"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/bit"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

// ClockSource enumerates the four sources a timer's MODE register can
// select, resolved per-timer via clockSourceTable.
type ClockSource int

const (
	ClockSystem ClockSource = iota
	ClockSystem8
	ClockDotclock
	ClockHblank
)

// clockSourceTable[clkSrcBits][timerID] mirrors handle_clock_source's match
// table verbatim: the meaning of MODE bits 8-9 depends on which timer owns
// the register.
var clockSourceTable = [4][3]ClockSource{
	0: {ClockSystem, ClockSystem, ClockSystem},
	1: {ClockDotclock, ClockHblank, ClockSystem},
	2: {ClockSystem, ClockSystem, ClockSystem8},
	3: {ClockDotclock, ClockHblank, ClockSystem8},
}

// MODE register bitfields (bit positions as documented).
const (
	modeSyncEnable    = 0
	modeSyncModeLo    = 1
	modeSyncModeHi    = 2
	modeResetOnTarget = 3
	modeIRQOnTarget   = 4
	modeIRQOnOverflow = 5
	modeIRQRepeat     = 6
	modeIRQPulse      = 7
	modeClkSrcLo      = 8
	modeClkSrcHi      = 9
	modeIRQStatus     = 10
	modeTargetHit     = 11
	modeOverflowHit   = 12
)

// ErrSyncModeUnimplemented is returned when a timer is ticked while its
// MODE register has sync enabled (bit 0) and a nonzero sync mode (bits
// 1-2); with sync disabled the timer free-runs. Per the Open Question
// in DESIGN.md, the register surface is modeled but the runtime behavior
// is not fabricated.
var ErrSyncModeUnimplemented = fmt.Errorf("timers: sync modes other than Off are not implemented")

// timerState is the internal (non-register) bookkeeping for one timer.
type timerState struct {
	count       uint32
	mode        uint32 // shadow of the MODE register bits, since it has two independent latches
	target      uint32
	clockSource ClockSource
	irqRaised   bool // one-shot latch, cleared by handle_oneshot_clear on MODE write

	writeLatched bool
	readLatched  bool

	accumCycles float64 // fractional system cycles carried between ticks
}

// Controller owns all three timers and the clock constants needed to
// convert a wall-clock time slice into source-clock ticks.
type Controller struct {
	timers [3]timerState
	intc   *intc.Controller

	SystemClockHz   float64
	DotclockHz      float64
	ScanlinePeriodS float64 // hblank period, seconds
}

// New constructs a Controller wired to the shared interrupt controller,
// with NTSC-nominal clock constants.
func New(ic *intc.Controller) *Controller {
	return &Controller{
		intc:            ic,
		SystemClockHz:   33_868_800,
		DotclockHz:      6_652_800,
		ScanlinePeriodS: 63.6e-6,
	}
}

func irqLineForTimer(id int) int {
	// addr.IRQTimer0..2 are sequential; avoided importing addr here to
	// keep this package's dependency surface to intc+bit only.
	return 4 + id
}

// WriteMode handles a CPU write to timer id's MODE register: it latches
// the new sync/irq-enable/clock-source bits and immediately re-derives
// internal state from them, per handle_mode_write.
func (c *Controller) WriteMode(id int, v uint32) error {
	t := &c.timers[id]
	t.mode = v
	t.writeLatched = true

	syncMode := bit.ExtractBits32(v, modeSyncModeHi, modeSyncModeLo)
	if syncMode != 0 {
		slog.Warn("timer sync mode requested but unimplemented", "timer", id, "sync_mode", syncMode)
	}

	t.mode = bit.InsertBits32(t.mode, 1, modeIRQPulse, modeIRQPulse)

	t.count = 0
	clkSrcBits := bit.ExtractBits32(v, modeClkSrcHi, modeClkSrcLo)
	t.clockSource = clockSourceTable[clkSrcBits][id]
	t.irqRaised = false

	t.writeLatched = false
	return nil
}

// ReadMode handles a CPU read of timer id's MODE register: the sticky
// target-hit/overflow-hit bits are cleared as a side effect of the read.
func (c *Controller) ReadMode(id int) uint32 {
	t := &c.timers[id]
	v := t.mode
	t.mode = bit.InsertBits32(t.mode, 0, modeOverflowHit, modeOverflowHit)
	t.mode = bit.InsertBits32(t.mode, 0, modeTargetHit, modeTargetHit)
	return v
}

func (c *Controller) WriteTarget(id int, v uint32) { c.timers[id].target = v & 0xFFFF }
func (c *Controller) ReadTarget(id int) uint32      { return c.timers[id].target }

func (c *Controller) WriteCount(id int, v uint32) { c.timers[id].count = v & 0xFFFF }
func (c *Controller) ReadCount(id int) uint32       { return c.timers[id].count }

// Tick advances every timer by the given wall-clock time slice, in seconds.
func (c *Controller) Tick(deltaSeconds float64) error {
	for id := range c.timers {
		if err := c.tickOne(id, deltaSeconds); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) tickOne(id int, deltaSeconds float64) error {
	t := &c.timers[id]

	syncMode := bit.ExtractBits32(t.mode, modeSyncModeHi, modeSyncModeLo)
	if bit.IsSet32(t.mode, modeSyncEnable) && syncMode != 0 {
		return fmt.Errorf("%w: timer %d sync_mode=%d", ErrSyncModeUnimplemented, id, syncMode)
	}

	var sourceHz float64
	switch t.clockSource {
	case ClockSystem:
		sourceHz = c.SystemClockHz
	case ClockSystem8:
		sourceHz = c.SystemClockHz / 8
	case ClockDotclock:
		sourceHz = c.DotclockHz
	case ClockHblank:
		sourceHz = 1 / c.ScanlinePeriodS
	}

	t.accumCycles += deltaSeconds * sourceHz
	ticks := int(t.accumCycles)
	t.accumCycles -= float64(ticks)

	for i := 0; i < ticks; i++ {
		c.stepCount(id)
	}
	return nil
}

func (c *Controller) stepCount(id int) {
	t := &c.timers[id]
	t.count++

	resetOnTarget := bit.IsSet32(t.mode, modeResetOnTarget)
	targetHit := uint32(t.count) == t.target
	overflowHit := t.count > 0xFFFF

	if targetHit && resetOnTarget {
		t.count = 0
		t.mode = bit.InsertBits32(t.mode, 1, modeTargetHit, modeTargetHit)
		c.maybeRaiseIRQ(id, bit.IsSet32(t.mode, modeIRQOnTarget))
	}

	if overflowHit {
		t.count = 0
		t.mode = bit.InsertBits32(t.mode, 1, modeOverflowHit, modeOverflowHit)
		c.maybeRaiseIRQ(id, bit.IsSet32(t.mode, modeIRQOnOverflow))
	}
}

func (c *Controller) maybeRaiseIRQ(id int, enabled bool) {
	if !enabled {
		return
	}
	t := &c.timers[id]
	repeat := bit.IsSet32(t.mode, modeIRQRepeat)
	if t.irqRaised && !repeat {
		return
	}
	t.irqRaised = true
	t.mode = bit.InsertBits32(t.mode, 0, modeIRQStatus, modeIRQStatus) // toggled low while asserted
	c.intc.Assert(irqLineForTimer(id))
	slog.Debug("timer irq raised", "timer", id)
}

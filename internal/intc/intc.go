// Package intc implements the interrupt controller: an 11-line level
// aggregator whose masked OR drives the CP0 Cause register's external
// interrupt bit.
package intc

import (
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bit"
)

// Controller holds the stat/mask register pair and the edge-detection
// state needed to raise the CPU-visible line only on a 0->1 transition of
// the masked value, mirroring the console's documented hardware behavior
// more precisely than a naive per-tick recompute.
type Controller struct {
	stat uint32
	mask uint32

	prevMasked uint32
	lineAsserted bool
}

func New() *Controller {
	return &Controller{}
}

// Assert raises the stat bit for the given line (a source becoming active).
func (c *Controller) Assert(line int) {
	c.stat = bit.Set32(c.stat, uint(line))
}

// ReadStat returns the current stat register.
func (c *Controller) ReadStat() uint32 { return c.stat }

// WriteStat applies write-1-to-acknowledge semantics: a bit set in v is
// cleared in stat; a bit left 0 in v is left untouched.
func (c *Controller) WriteStat(v uint32) {
	c.stat = bit.AcknowledgeMask32(c.stat, v)
}

func (c *Controller) ReadMask() uint32 { return c.mask }
func (c *Controller) WriteMask(v uint32) { c.mask = v }

// Tick recomputes (stat & mask); if it has changed since the previous
// tick, it finds the first bit that transitioned 0->1 and asserts the
// line, or — if the masked value went to zero — deasserts it. Grounded on
// the edge-triggered-on-change algorithm in the original controller:
// cache the previous masked value, only reassess when it differs.
func (c *Controller) Tick() {
	masked := c.stat & c.mask
	if masked == c.prevMasked {
		return
	}

	if masked == 0 {
		c.lineAsserted = false
		c.prevMasked = masked
		return
	}

	risen := masked &^ c.prevMasked
	if risen != 0 {
		for i := 0; i < addr.IRQLineCount; i++ {
			if bit.IsSet32(risen, uint(i)) {
				c.lineAsserted = true
				slog.Debug("intc line asserted", "line", i)
				break
			}
		}
	}
	c.prevMasked = masked
}

// Line reports whether the aggregated line is currently asserted; this
// feeds CP0 Cause's internal INTC-pending flag.
func (c *Controller) Line() bool { return c.lineAsserted }

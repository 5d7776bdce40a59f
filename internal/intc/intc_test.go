package intc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

func TestAssertRaisesLineOnlyWhenMasked(t *testing.T) {
	c := intc.New()
	c.Assert(addr.IRQVBlank)
	c.Tick()
	assert.False(t, c.Line(), "unmasked source must not raise the line")

	c.WriteMask(1 << addr.IRQVBlank)
	c.Tick()
	assert.True(t, c.Line())
}

func TestAcknowledgeByOne(t *testing.T) {
	c := intc.New()
	c.Assert(addr.IRQVBlank)
	c.Assert(addr.IRQGPU)
	before := c.ReadStat()

	c.WriteStat(1 << addr.IRQVBlank)
	after := c.ReadStat()

	for i := 0; i < addr.IRQLineCount; i++ {
		want := (before>>uint(i))&1 != 0 && (uint32(1)<<uint(i))&(1<<addr.IRQVBlank) == 0
		got := (after>>uint(i))&1 != 0
		if i == addr.IRQVBlank {
			assert.False(t, got)
		} else if i == addr.IRQGPU {
			assert.True(t, got)
		} else {
			assert.Equal(t, want, got)
		}
	}
}

func TestLineDeassertsWhenMaskedGoesToZero(t *testing.T) {
	c := intc.New()
	c.WriteMask(1 << addr.IRQVBlank)
	c.Assert(addr.IRQVBlank)
	c.Tick()
	assert.True(t, c.Line())

	c.WriteStat(1 << addr.IRQVBlank)
	c.Tick()
	assert.False(t, c.Line())
}

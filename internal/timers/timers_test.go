package timers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/intc"
	"github.com/cantrip-labs/psxcore/internal/timers"
)

// Timer 2 system/8 overflow: clock-source=2 (System/8 for timer 2),
// target=0, reset-on-target=0, irq-on-overflow=1, irq-repeat=0.
func TestTimer2System8Overflow(t *testing.T) {
	ic := intc.New()
	ic.WriteMask(1 << addr.IRQTimer2)
	tc := timers.New(ic)

	mode := uint32(0)
	mode |= 2 << 8  // clock source select = 2
	mode |= 1 << 5  // irq-on-overflow
	require := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require(tc.WriteMode(2, mode))

	ticksNeeded := float64(0x1_0000)
	seconds := ticksNeeded / (tc.SystemClockHz / 8)

	require(tc.Tick(seconds))
	ic.Tick()

	m := tc.ReadMode(2)
	assert.NotZero(t, m&(1<<12), "overflow-hit sticky bit must be set")
	assert.True(t, ic.Line(), "INTC timer2 line must be asserted")

	// reading MODE must have cleared the sticky bits.
	m2 := tc.ReadMode(2)
	assert.Zero(t, m2&(1<<12))
}

func TestModeWriteResetsCount(t *testing.T) {
	ic := intc.New()
	tc := timers.New(ic)
	tc.WriteCount(0, 1234)
	assert.NoError(t, tc.WriteMode(0, 0))
	assert.Equal(t, uint32(0), tc.ReadCount(0))
}

package padmc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/intc"
	"github.com/cantrip-labs/psxcore/internal/padmc"
)

// stubDevice mirrors the unimplemented-controller stub: always replies
// 0xFF regardless of what was transmitted.
type stubDevice struct{}

func (stubDevice) Exchange(uint8) (uint8, bool) { return 0xFF, false }

func TestImmediateTransferYieldsStubReply(t *testing.T) {
	ic := intc.New()
	c := padmc.New(ic)
	c.SetDevice(0, stubDevice{})
	c.WriteCtrl(1 << 1) // TXEN

	c.WriteTX(0x01)

	assert.Equal(t, uint8(0xFF), c.ReadRX())
}

func TestNoDeviceWiredStillYieldsUndrivenDefault(t *testing.T) {
	ic := intc.New()
	c := padmc.New(ic)
	c.WriteCtrl(1 << 1)

	c.WriteTX(0x42)

	assert.Equal(t, uint8(0xFF), c.ReadRX())
}

func TestDeferredTransferCompletesAfterCountdown(t *testing.T) {
	ic := intc.New()
	c := padmc.New(ic)
	c.Immediate = false
	c.CyclesPerByte = 10
	c.SetDevice(0, stubDevice{})
	c.WriteCtrl((1 << 1) | (1 << 10)) // TXEN + ACK interrupt enable

	c.WriteTX(0x01)
	c.Tick(5)
	assert.False(t, c.ReadStat()&(1<<1) != 0, "RX not ready before countdown elapses")

	c.Tick(5)
	assert.True(t, c.ReadStat()&(1<<1) != 0, "RX ready once countdown elapses")
	assert.Equal(t, uint8(0xFF), c.ReadRX())
}

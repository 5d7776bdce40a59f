package dmac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bus"
	"github.com/cantrip-labs/psxcore/internal/dmac"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

type ramAdapter struct{ m *bus.B8Memory }

func (r ramAdapter) ReadU32(a uint32) uint32     { return r.m.ReadU32(a) }
func (r ramAdapter) WriteU32(a uint32, v uint32) { r.m.WriteU32(a, v) }

func TestOTCDMA(t *testing.T) {
	ram := bus.NewB8Memory(2 * 1024 * 1024)
	ic := intc.New()
	c := dmac.New(ramAdapter{ram}, ic)

	c.WriteDPCR(1 << (addr.DmacChanOTC*4 + 3))
	c.WriteMADR(addr.DmacChanOTC, 0x0010_0000)
	c.WriteBCR(addr.DmacChanOTC, 4)

	chcr := uint32(0)
	chcr |= 1 << 1  // step backward
	chcr |= 1 << 24 // start/busy
	chcr |= 1 << 28 // start/trigger
	c.WriteCHCR(addr.DmacChanOTC, chcr)

	assert.NoError(t, c.Tick())

	assert.Equal(t, uint32(0x000F_FFFC), ram.ReadU32(0x0010_0000))
	assert.Equal(t, uint32(0x000F_FFF8), ram.ReadU32(0x000F_FFFC))
	assert.Equal(t, uint32(0x000F_FFF4), ram.ReadU32(0x000F_FFF8))
	assert.Equal(t, uint32(0x00FF_FFFF), ram.ReadU32(0x000F_FFF4))

	_, _, chcrAfter := c.ReadChannel(addr.DmacChanOTC)
	assert.Zero(t, chcrAfter&(1<<24), "StartBusy must clear on completion")
}

type fifoPeer struct {
	*bus.FIFO[uint32]
}

func (p fifoPeer) PullWord() (uint32, bool) {
	v, err := p.ReadOne()
	return v, err == nil
}

func (p fifoPeer) PushWord(v uint32) bool {
	return p.WriteOne(v) == nil
}

func TestLinkedListTerminal(t *testing.T) {
	ram := bus.NewB8Memory(2 * 1024 * 1024)
	ic := intc.New()
	c := dmac.New(ramAdapter{ram}, ic)

	gp0 := fifoPeer{bus.NewFIFO[uint32](64)}
	c.SetPeer(addr.DmacChanGPU, gp0)

	// header at 0x1000: count=1 word, next header = terminal.
	ram.WriteU32(0x1000, (1<<24)|0x00FF_FFFF)
	ram.WriteU32(0x1004, 0xAABBCCDD)

	c.WriteDPCR(1 << (addr.DmacChanGPU*4 + 3))
	c.WriteMADR(addr.DmacChanGPU, 0x1000)
	chcr := uint32(0)
	chcr |= 2 << 9 // sync mode = linked list
	chcr |= 1 << 24
	chcr |= 1 << 28
	c.WriteCHCR(addr.DmacChanGPU, chcr)

	assert.NoError(t, c.Tick())

	v, err := gp0.ReadOne()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), v)

	c.WriteDICR(1<<(16+addr.DmacChanGPU) | 1<<23)
	assert.NotZero(t, c.ReadDICR()&(1<<31), "DICR channel flag must set master bit")
}

package dmac

import (
	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bus"
)

// RegisterWindow adapts the seven per-channel MADR/BCR/CHCR blocks plus
// DPCR/DICR to the bus, offsets relative to the DMAC base: channel id
// occupies id*0x10..id*0x10+0xB, DPCR sits at 0x70, DICR at 0x74.
type RegisterWindow struct {
	c *Controller
	f *bus.RegisterFile
}

func NewRegisterWindow(c *Controller) *RegisterWindow {
	w := &RegisterWindow{c: c}
	rf := bus.NewRegisterFile("dmac")

	for i := 0; i < addr.DmacChannelCount; i++ {
		id := i
		base := uint32(id) * addr.DmacChanStride

		rf.At(base+0x0,
			func() uint32 { madr, _, _ := c.ReadChannel(id); return madr },
			func(v uint32) error { c.WriteMADR(id, v); return nil })
		rf.At(base+0x4,
			func() uint32 { _, bcr, _ := c.ReadChannel(id); return bcr },
			func(v uint32) error { c.WriteBCR(id, v); return nil })
		rf.At(base+0x8,
			func() uint32 { _, _, chcr := c.ReadChannel(id); return chcr },
			func(v uint32) error { c.WriteCHCR(id, v); return nil })
	}

	rf.At(addr.DmacDPCR-addr.DmacBase, c.ReadDPCR, func(v uint32) error { c.WriteDPCR(v); return nil })
	rf.At(addr.DmacDICR-addr.DmacBase, c.ReadDICR, func(v uint32) error { c.WriteDICR(v); return nil })

	w.f = rf
	return w
}

func (w *RegisterWindow) Name() string                          { return w.f.Name() }
func (w *RegisterWindow) ReadU8(offset uint32) (uint8, error)    { return w.f.ReadU8(offset) }
func (w *RegisterWindow) WriteU8(offset uint32, v uint8) error   { return w.f.WriteU8(offset, v) }
func (w *RegisterWindow) ReadU16(offset uint32) (uint16, error)  { return w.f.ReadU16(offset) }
func (w *RegisterWindow) WriteU16(offset uint32, v uint16) error { return w.f.WriteU16(offset, v) }
func (w *RegisterWindow) ReadU32(offset uint32) (uint32, error)  { return w.f.ReadU32(offset) }
func (w *RegisterWindow) WriteU32(offset uint32, v uint32) error { return w.f.WriteU32(offset, v) }

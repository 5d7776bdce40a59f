package intc

import "github.com/cantrip-labs/psxcore/internal/bus"

// RegisterWindow adapts the two-word STAT/MASK register pair to the bus,
// at offsets 0x0 and 0x4 relative to the interrupt controller's base.
type RegisterWindow struct {
	c *Controller
	f *bus.RegisterFile
}

func NewRegisterWindow(c *Controller) *RegisterWindow {
	w := &RegisterWindow{c: c}
	w.f = bus.NewRegisterFile("intc").
		At(0x0, c.ReadStat, func(v uint32) error { c.WriteStat(v); return nil }).
		At(0x4, c.ReadMask, func(v uint32) error { c.WriteMask(v); return nil })
	return w
}

func (w *RegisterWindow) Name() string                          { return w.f.Name() }
func (w *RegisterWindow) ReadU8(offset uint32) (uint8, error)    { return w.f.ReadU8(offset) }
func (w *RegisterWindow) WriteU8(offset uint32, v uint8) error   { return w.f.WriteU8(offset, v) }
func (w *RegisterWindow) ReadU16(offset uint32) (uint16, error)  { return w.f.ReadU16(offset) }
func (w *RegisterWindow) WriteU16(offset uint32, v uint16) error { return w.f.WriteU16(offset, v) }
func (w *RegisterWindow) ReadU32(offset uint32) (uint32, error)  { return w.f.ReadU32(offset) }
func (w *RegisterWindow) WriteU32(offset uint32, v uint32) error { return w.f.WriteU32(offset, v) }

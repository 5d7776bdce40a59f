package gpu

import "github.com/cantrip-labs/psxcore/internal/bus"

// RegisterWindow adapts the GPU's two overloaded registers to the bus:
// offset 0x0 is GP0 on write and GPUREAD on read, offset 0x4 is GP1 on
// write and STAT on read, mapped relative to the GP0/GPUREAD base.
type RegisterWindow struct {
	c *Controller
	f *bus.RegisterFile
}

func NewRegisterWindow(c *Controller) *RegisterWindow {
	w := &RegisterWindow{c: c}
	w.f = bus.NewRegisterFile("gpu").
		At(0x0,
			func() uint32 { v, _ := c.ReadGPUREAD(); return v },
			func(v uint32) error { return c.WriteGP0(v) }).
		At(0x4,
			c.ReadSTAT,
			func(v uint32) error { c.WriteGP1(v); return nil })
	return w
}

func (w *RegisterWindow) Name() string                          { return w.f.Name() }
func (w *RegisterWindow) ReadU8(offset uint32) (uint8, error)    { return w.f.ReadU8(offset) }
func (w *RegisterWindow) WriteU8(offset uint32, v uint8) error   { return w.f.WriteU8(offset, v) }
func (w *RegisterWindow) ReadU16(offset uint32) (uint16, error)  { return w.f.ReadU16(offset) }
func (w *RegisterWindow) WriteU16(offset uint32, v uint16) error { return w.f.WriteU16(offset, v) }
func (w *RegisterWindow) ReadU32(offset uint32) (uint32, error)  { return w.f.ReadU32(offset) }
func (w *RegisterWindow) WriteU32(offset uint32, v uint32) error { return w.f.WriteU32(offset, v) }

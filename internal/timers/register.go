package timers

import "github.com/cantrip-labs/psxcore/internal/bus"

const timerCount = 3

// RegisterWindow adapts the three COUNT/MODE/TARGET blocks to the bus,
// each timer occupying a 0x10-stride 12-byte block relative to the
// timers base: COUNT at +0x0, MODE at +0x4, TARGET at +0x8.
type RegisterWindow struct {
	c *Controller
	f *bus.RegisterFile
}

func NewRegisterWindow(c *Controller) *RegisterWindow {
	w := &RegisterWindow{c: c}
	rf := bus.NewRegisterFile("timers")

	for i := 0; i < timerCount; i++ {
		id := i
		base := uint32(id) * 0x10

		rf.At(base+0x0,
			func() uint32 { return c.ReadCount(id) },
			func(v uint32) error { c.WriteCount(id, v); return nil })
		rf.At(base+0x4,
			func() uint32 { return c.ReadMode(id) },
			func(v uint32) error { return c.WriteMode(id, v) })
		rf.At(base+0x8,
			func() uint32 { return c.ReadTarget(id) },
			func(v uint32) error { c.WriteTarget(id, v); return nil })
	}

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

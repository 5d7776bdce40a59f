package cdrom

import "github.com/cantrip-labs/psxcore/internal/bus"

// RegisterWindow adapts the controller's existing 4-byte index-switched
// register API to the bus; each of the four offsets is an independently
// addressed byte register, so wider accesses compose safely byte by byte.
type RegisterWindow struct {
	c *Controller
}

func NewRegisterWindow(c *Controller) *RegisterWindow { return &RegisterWindow{c: c} }

func (w *RegisterWindow) Name() string { return "cdrom" }

func (w *RegisterWindow) ReadU8(offset uint32) (uint8, error)  { return w.c.ReadRegister(offset) }
func (w *RegisterWindow) WriteU8(offset uint32, v uint8) error { return w.c.WriteRegister(offset, v) }

func (w *RegisterWindow) ReadU16(offset uint32) (uint16, error) {
	return bus.ComposeReadU16(w.c.ReadRegister, offset)
}
func (w *RegisterWindow) WriteU16(offset uint32, v uint16) error {
	return bus.ComposeWriteU16(w.c.WriteRegister, offset, v)
}
func (w *RegisterWindow) ReadU32(offset uint32) (uint32, error) {
	return bus.ComposeReadU32(w.c.ReadRegister, offset)
}
func (w *RegisterWindow) WriteU32(offset uint32, v uint32) error {
	return bus.ComposeWriteU32(w.c.WriteRegister, offset, v)
}

package bus

import (
	"fmt"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
)

// ReadErrorKind and WriteErrorKind are the bus layer's structural errors:
// the caller is expected to retry or back off, never to treat them as
// fatal.
type ReadErrorKind int

const (
	ReadOK ReadErrorKind = iota
	ReadEmpty
	ReadNotReady
)

type WriteErrorKind int

const (
	WriteOK WriteErrorKind = iota
	WriteFull
	WriteNotReady
)

func (k ReadErrorKind) Error() string {
	switch k {
	case ReadEmpty:
		return "bus: read from empty source"
	case ReadNotReady:
		return "bus: read target not ready"
	default:
		return "bus: ok"
	}
}

func (k WriteErrorKind) Error() string {
	switch k {
	case WriteFull:
		return "bus: write to full target"
	case WriteNotReady:
		return "bus: write target not ready"
	default:
		return "bus: ok"
	}
}

// Handler is the closed tagged-dispatch target for one mapped bus range.
// Concrete implementations are Memory (flat B8Memory region) or Register
// (a component's own MMIO block); this replaces a trait-object map with a
// single interface satisfied by a small, known set of types.
type Handler interface {
	Name() string
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	WriteU8(offset uint32, v uint8) error
	WriteU16(offset uint32, v uint16) error
	WriteU32(offset uint32, v uint32) error
}

type entry struct {
	base, length uint32
	handler      Handler
}

// Bus owns the mapped range table and performs virtual-to-physical
// translation followed by dispatch to the owning handler.
type Bus struct {
	entries    []entry
	busLocked  bool
}

func New() *Bus {
	return &Bus{}
}

// SetBusLocked lets the DMAC controller report whether it currently owns
// the bus, consulted by the CPU before each memory access.
func (b *Bus) SetBusLocked(locked bool) { b.busLocked = locked }

// BusLocked reports whether the DMAC currently owns the bus.
func (b *Bus) BusLocked() bool { return b.busLocked }

// Map registers a handler for [base, base+length).
func (b *Bus) Map(base, length uint32, h Handler) {
	b.entries = append(b.entries, entry{base, length, h})
}

// Translate strips the kuseg/kseg0/kseg1/kseg2 segment prefix from a
// virtual address. kseg2 is only valid for the cache-control region.
func Translate(va uint32) (uint32, bool) {
	switch {
	case va >= addr.Kseg2Base:
		return va - addr.Kseg2Base + addr.CacheControlBase, true
	case va >= addr.Kseg1Base:
		return va - addr.Kseg1Base, true
	case va >= addr.Kseg0Base:
		return va - addr.Kseg0Base, true
	default:
		return va, true // kuseg passes through unchanged
	}
}

func (b *Bus) find(pa uint32) (entry, bool) {
	for _, e := range b.entries {
		if pa >= e.base && pa < e.base+e.length {
			return e, true
		}
	}
	return entry{}, false
}

func (b *Bus) ReadU32(va uint32) (uint32, error) {
	pa, _ := Translate(va)
	if pa%4 != 0 {
		return 0, fmt.Errorf("bus: unaligned u32 read at 0x%08X", va)
	}
	e, ok := b.find(pa)
	if !ok {
		return 0, fmt.Errorf("bus: unmapped u32 read at 0x%08X", va)
	}
	v, err := e.handler.ReadU32(pa - e.base)
	if err != nil {
		slog.Debug("bus read deferred", "handler", e.handler.Name(), "addr", fmt.Sprintf("0x%08X", va), "err", err)
	}
	return v, err
}

func (b *Bus) WriteU32(va uint32, v uint32) error {
	pa, _ := Translate(va)
	if pa%4 != 0 {
		return fmt.Errorf("bus: unaligned u32 write at 0x%08X", va)
	}
	e, ok := b.find(pa)
	if !ok {
		return fmt.Errorf("bus: unmapped u32 write at 0x%08X", va)
	}
	return e.handler.WriteU32(pa-e.base, v)
}

func (b *Bus) ReadU16(va uint32) (uint16, error) {
	pa, _ := Translate(va)
	if pa%2 != 0 {
		return 0, fmt.Errorf("bus: unaligned u16 read at 0x%08X", va)
	}
	e, ok := b.find(pa)
	if !ok {
		return 0, fmt.Errorf("bus: unmapped u16 read at 0x%08X", va)
	}
	return e.handler.ReadU16(pa - e.base)
}

func (b *Bus) WriteU16(va uint32, v uint16) error {
	pa, _ := Translate(va)
	if pa%2 != 0 {
		return fmt.Errorf("bus: unaligned u16 write at 0x%08X", va)
	}
	e, ok := b.find(pa)
	if !ok {
		return fmt.Errorf("bus: unmapped u16 write at 0x%08X", va)
	}
	return e.handler.WriteU16(pa-e.base, v)
}

func (b *Bus) ReadU8(va uint32) (uint8, error) {
	pa, _ := Translate(va)
	e, ok := b.find(pa)
	if !ok {
		return 0, fmt.Errorf("bus: unmapped u8 read at 0x%08X", va)
	}
	return e.handler.ReadU8(pa - e.base)
}

func (b *Bus) WriteU8(va uint32, v uint8) error {
	pa, _ := Translate(va)
	e, ok := b.find(pa)
	if !ok {
		return fmt.Errorf("bus: unmapped u8 write at 0x%08X", va)
	}
	return e.handler.WriteU8(pa-e.base, v)
}

// MemoryHandler adapts a B8Memory region to the Handler interface.
type MemoryHandler struct {
	name string
	mem  *B8Memory
}

func NewMemoryHandler(name string, mem *B8Memory) *MemoryHandler {
	return &MemoryHandler{name: name, mem: mem}
}

func (h *MemoryHandler) Name() string { return h.name }
func (h *MemoryHandler) Memory() *B8Memory { return h.mem }

func (h *MemoryHandler) ReadU8(offset uint32) (uint8, error)  { return h.mem.ReadU8(offset), nil }
func (h *MemoryHandler) ReadU16(offset uint32) (uint16, error) { return h.mem.ReadU16(offset), nil }
func (h *MemoryHandler) ReadU32(offset uint32) (uint32, error) { return h.mem.ReadU32(offset), nil }
func (h *MemoryHandler) WriteU8(offset uint32, v uint8) error  { h.mem.WriteU8(offset, v); return nil }
func (h *MemoryHandler) WriteU16(offset uint32, v uint16) error {
	h.mem.WriteU16(offset, v)
	return nil
}
func (h *MemoryHandler) WriteU32(offset uint32, v uint32) error {
	h.mem.WriteU32(offset, v)
	return nil
}

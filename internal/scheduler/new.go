package scheduler

import (
	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/backend"
	"github.com/cantrip-labs/psxcore/internal/bus"
	"github.com/cantrip-labs/psxcore/internal/cdrom"
	"github.com/cantrip-labs/psxcore/internal/dmac"
	"github.com/cantrip-labs/psxcore/internal/gpu"
	"github.com/cantrip-labs/psxcore/internal/intc"
	"github.com/cantrip-labs/psxcore/internal/padmc"
	"github.com/cantrip-labs/psxcore/internal/r3000"
	"github.com/cantrip-labs/psxcore/internal/spu"
	"github.com/cantrip-labs/psxcore/internal/timers"
)

// cpuMemoryAdapter bridges the shared Bus to r3000.Memory, the CPU's
// narrow view of the system: it never sees FIFOs or register windows
// directly, only translated bus accesses.
type cpuMemoryAdapter struct {
	bus *bus.Bus
}

func (a *cpuMemoryAdapter) BusLocked() bool                       { return a.bus.BusLocked() }
func (a *cpuMemoryAdapter) ReadU8(va uint32) (uint8, error)       { return a.bus.ReadU8(va) }
func (a *cpuMemoryAdapter) WriteU8(va uint32, v uint8) error      { return a.bus.WriteU8(va, v) }
func (a *cpuMemoryAdapter) ReadU16(va uint32) (uint16, error)     { return a.bus.ReadU16(va) }
func (a *cpuMemoryAdapter) WriteU16(va uint32, v uint16) error    { return a.bus.WriteU16(va, v) }
func (a *cpuMemoryAdapter) ReadU32(va uint32) (uint32, error)     { return a.bus.ReadU32(va) }
func (a *cpuMemoryAdapter) WriteU32(va uint32, v uint32) error    { return a.bus.WriteU32(va, v) }

// dmacBusAdapter bridges the shared Bus to dmac.RAM for descriptor/
// linked-list reads during DMA transfers.
type dmacBusAdapter struct {
	bus *bus.Bus
}

func (a *dmacBusAdapter) ReadU32(pa uint32) uint32 {
	v, _ := a.bus.ReadU32(pa)
	return v
}
func (a *dmacBusAdapter) WriteU32(pa uint32, v uint32) {
	_ = a.bus.WriteU32(pa, v)
}

// New wires every component together onto a shared Bus: RAM, BIOS,
// scratchpad, and every controller's register window, following the
// fixed memory map.
func New(biosImage []byte) *State {
	b := bus.New()

	ram := bus.NewB8Memory(int(addr.RAMSize))
	ramHandler := bus.NewMemoryHandler("ram", ram)
	b.Map(addr.RAMBase, addr.RAMSize, ramHandler)
	// The console mirrors the 2 MiB main memory range three more times up
	// to 8 MiB; every mirror maps back onto the same underlying RAM.
	for _, mirrorBase := range []uint32{addr.RAMSize, 2 * addr.RAMSize, 3 * addr.RAMSize} {
		b.Map(mirrorBase, addr.RAMSize, ramHandler)
	}

	bios := bus.NewB8MemoryInitialized(int(addr.BIOSSize), 0)
	copy(bios.ReadRaw(0), biosImage)
	b.Map(addr.BIOSBase, addr.BIOSSize, bus.NewMemoryHandler("bios", bios))

	scratchpad := bus.NewB8Memory(int(addr.ScratchpadSize))
	b.Map(addr.ScratchpadBase, addr.ScratchpadSize, bus.NewMemoryHandler("scratchpad", scratchpad))

	// Misc registers: Memory Control 1, RAM size control, PIO, and POST
	// display are plain, uninterpreted storage on real hardware, so they
	// are backed directly by B8Memory rather than a bespoke component.
	b.Map(addr.MemCtrl1Base, addr.MemCtrl1Size, bus.NewMemoryHandler("memctrl1", bus.NewB8Memory(int(addr.MemCtrl1Size))))
	b.Map(addr.RAMSizeCtrlBase, addr.RAMSizeCtrlSize, bus.NewMemoryHandler("ramsizectrl", bus.NewB8Memory(int(addr.RAMSizeCtrlSize))))
	b.Map(addr.PIOBase, addr.PIOSize, bus.NewMemoryHandler("pio", bus.NewB8MemoryInitialized(int(addr.PIOSize), 0xFF)))
	b.Map(addr.PostDisplayAddr, 1, bus.NewMemoryHandler("postdisplay", bus.NewB8Memory(1)))

	ic := intc.New()
	dm := dmac.New(&dmacBusAdapter{bus: b}, ic)
	gp := gpu.New(ic, nil)
	sp := spu.New()
	tm := timers.New(ic)
	cd := cdrom.New(ic, nil)
	pm := padmc.New(ic)

	dm.SetPeer(addr.DmacChanGPU, gp)

	b.Map(addr.IntcStatAddr, 8, intc.NewRegisterWindow(ic))
	b.Map(addr.DmacBase, addr.DmacDICR+4-addr.DmacBase, dmac.NewRegisterWindow(dm))
	b.Map(addr.TimersBase, 3*0x10, timers.NewRegisterWindow(tm))
	b.Map(addr.CdromBase, addr.CdromSize, cdrom.NewRegisterWindow(cd))
	b.Map(addr.GPUGP0Addr, 8, gpu.NewRegisterWindow(gp))
	b.Map(addr.SPUBase, addr.SPUSize, spu.NewRegisterWindow(sp))
	b.Map(addr.PadmcBase, addr.PadmcSize, padmc.NewRegisterWindow(pm))

	cpu := r3000.New(&cpuMemoryAdapter{bus: b})

	return &State{
		Bus:    b,
		RAM:    ram,
		CPU:    cpu,
		INTC:   ic,
		DMAC:   dm,
		GPU:    gp,
		SPU:    sp,
		Timers: tm,
		CDROM:  cd,
		PADMC:  pm,
		Mode:   Sequential,
		Video:  backend.StubVideo{},
		Audio:  backend.StubAudio{},
	}
}

// RunSlices advances the scheduler by n slices of sliceSeconds each,
// stopping early on the first error.
func (s *State) RunSlices(n int, sliceSeconds float64) error {
	for i := 0; i < n; i++ {
		if err := s.Time(sliceSeconds); err != nil {
			return err
		}
	}
	return nil
}

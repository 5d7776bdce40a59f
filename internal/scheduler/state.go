// Package scheduler owns every component's controller and register file
// and broadcasts a time slice to each of them, in either a fixed
// sequential order or (optionally) concurrently across goroutines.
package scheduler

import (
	"sync"
	"sync/atomic"

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

// BroadcastMode selects how a time slice is distributed across components.
type BroadcastMode int

const (
	Sequential BroadcastMode = iota
	Parallel
)

// State owns every component of the console and the shared bus they're
// mapped onto.
type State struct {
	Bus     *bus.Bus
	RAM     *bus.B8Memory
	CPU     *r3000.CPU
	INTC    *intc.Controller
	DMAC    *dmac.Controller
	GPU     *gpu.Controller
	SPU     *spu.Controller
	Timers  *timers.Controller
	CDROM   *cdrom.Controller
	PADMC   *padmc.Controller

	Mode BroadcastMode

	// Video and Audio are the host-supplied presentation backends,
	// notified once per Sequential time slice. They default to the
	// always-unsupported stubs until a host calls SetVideoBackend/
	// SetAudioBackend. Not consulted in Parallel mode, since GPU.Tick
	// and SPU.Tick may be running concurrently with no synchronization
	// of their own (see "Parallel broadcast is best-effort" in DESIGN.md).
	Video backend.VideoBackend
	Audio backend.AudioBackend
}

// SetVideoBackend wires a concrete presentation backend in place of the
// default stub.
func (s *State) SetVideoBackend(v backend.VideoBackend) { s.Video = v }

// SetAudioBackend wires a concrete audio output backend in place of the
// default stub.
func (s *State) SetAudioBackend(a backend.AudioBackend) { s.Audio = a }

// Time broadcasts one time slice of length deltaSeconds (converted to
// CPU cycles via the caller-selected granularity) to every owned
// component. Sequential mode uses the fixed order r3000 -> dmac -> gpu ->
// spu -> gpu_crtc -> intc -> padmc -> timers -> cdrom; Parallel mode runs
// the components concurrently (see timeParallel).
func (s *State) Time(deltaSeconds float64) error {
	if s.Mode == Parallel {
		return s.timeParallel(deltaSeconds)
	}
	return s.timeSequential(deltaSeconds)
}

func (s *State) timeSequential(deltaSeconds float64) error {
	if err := s.runCPU(deltaSeconds); err != nil {
		return err
	}
	if err := s.DMAC.Tick(); err != nil {
		return err
	}
	s.Bus.SetBusLocked(s.DMAC.BusLocked())
	s.GPU.Tick(deltaSeconds)
	if err := s.presentVideoFrame(); err != nil && err != backend.ErrUnsupported {
		return err
	}
	left, right, err := s.SPU.Tick()
	if err != nil {
		return err
	}
	if err := s.Audio.PushSamples(left, right); err != nil && err != backend.ErrUnsupported {
		return err
	}
	s.INTC.Tick()
	s.CPU.SetIntcLine(s.INTC.Line())
	s.PADMC.Tick(s.padmcCycles(deltaSeconds))
	if err := s.Timers.Tick(deltaSeconds); err != nil {
		return err
	}
	if err := s.CDROM.Tick(); err != nil {
		return err
	}
	return nil
}

// presentVideoFrame hands the current display geometry/parity to the
// registered video backend. GP0/GP1 drawing execution is out of scope,
// so there is no VRAM pixel buffer to hand across with it.
func (s *State) presentVideoFrame() error {
	stat := s.GPU.ReadSTAT()
	hres := uint8((stat >> 16) & 0x7)
	vres := uint8((stat >> 19) & 0x1)
	return s.Video.Present(hres, vres, s.GPU.DrawingOdd())
}

// padmcCycles converts a wall-clock slice into the PADMC's bit-clock
// cycle count, reusing the Timers controller's system clock rate rather
// than carrying a second copy of the console's base frequency.
func (s *State) padmcCycles(deltaSeconds float64) int {
	return int(deltaSeconds * s.Timers.SystemClockHz)
}

// runCPU advances the R3000 by as many Tick calls as its cycle budget for
// this slice allows, mirroring the reference scheduler's run_time loop:
// ticks -= tick(resources) until the budget is exhausted.
func (s *State) runCPU(deltaSeconds float64) error {
	budget := deltaSeconds * r3000.ClockSpeedHz
	for budget > 0 {
		cycles, err := s.CPU.Tick()
		if err != nil {
			return err
		}
		budget -= float64(cycles)
	}
	return nil
}

// timeParallel runs every component concurrently and joins with a
// WaitGroup, the Go analogue of the reference implementation's
// thread-pool scope + acquire/release fence pair: the WaitGroup's Wait
// is the join point, acting as the release fence before the next slice
// begins.
func (s *State) timeParallel(deltaSeconds float64) error {
	var wg sync.WaitGroup
	var firstErr atomic.Value // holds error

	run := func(fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			firstErr.CompareAndSwap(nil, err)
		}
	}

	wg.Add(7)
	go run(func() error { return s.runCPU(deltaSeconds) })
	go run(func() error {
		err := s.DMAC.Tick()
		s.Bus.SetBusLocked(s.DMAC.BusLocked())
		return err
	})
	go run(func() error { s.GPU.Tick(deltaSeconds); return nil })
	go run(func() error { _, _, err := s.SPU.Tick(); return err })
	go run(func() error {
		s.INTC.Tick()
		s.CPU.SetIntcLine(s.INTC.Line())
		return nil
	})
	go run(func() error { s.PADMC.Tick(s.padmcCycles(deltaSeconds)); return nil })
	go run(func() error { return s.Timers.Tick(deltaSeconds) })
	wg.Wait()

	if err := s.CDROM.Tick(); err != nil {
		return err
	}

	if v := firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

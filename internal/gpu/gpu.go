// Package gpu implements the GPU's register/FIFO plumbing and CRTC timing.
// GP0/GP1 command decoding is an external collaborator's concern; this
// package only models the FIFOs, the STAT snapshot, and the scanline/
// frame accumulators that drive VBLANK and the drawing-odd toggle.
package gpu

import (
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bus"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

const (
	gp0Capacity  = 64
	gp1Capacity  = 64
	readCapacity = 64
)

// Decoder is the external collaborator that interprets GP0/GP1 command
// words; out of scope for this package beyond invocation.
type Decoder interface {
	HandleGP0(word uint32)
	HandleGP1(word uint32)
}

// Controller owns the GPU's three FIFOs, the STAT snapshot fields, and
// the CRTC accumulators.
type Controller struct {
	gp0  *bus.FIFO[uint32]
	gp1  *bus.FIFO[uint32]
	read *bus.FIFO[uint32]

	decoder Decoder
	intc    *intc.Controller

	drawingOdd    bool
	displayEnable bool
	recvCmdReady  bool
	sendVRAMReady bool
	recvDMAReady  bool
	hres, vres    uint8

	scanlineAccum float64
	frameAccum    float64

	ScanlinePeriodS float64
	FramePeriodS    float64
}

func New(ic *intc.Controller, decoder Decoder) *Controller {
	return &Controller{
		gp0:             bus.NewFIFO[uint32](gp0Capacity),
		gp1:             bus.NewFIFO[uint32](gp1Capacity),
		read:            bus.NewFIFO[uint32](readCapacity),
		intc:            ic,
		decoder:         decoder,
		recvCmdReady:    true,
		sendVRAMReady:   true,
		recvDMAReady:    true,
		ScanlinePeriodS: 63.6e-6,
		FramePeriodS:    1.0 / 60.0,
	}
}

// PullWord satisfies dmac.Peer for the GPUREAD direction.
func (c *Controller) PullWord() (uint32, bool) {
	v, err := c.read.ReadOne()
	return v, err == nil
}

// PushWord satisfies dmac.Peer for the GP0 direction (linked-list/block DMA).
func (c *Controller) PushWord(v uint32) bool {
	return c.gp0.WriteOne(v) == nil
}

// WriteGP0 is the CPU's direct (non-DMA) path into the command FIFO.
func (c *Controller) WriteGP0(v uint32) error {
	return c.gp0.WriteOne(v)
}

// WriteGP1 triggers an immediate control command; GP1 itself has no
// backlog semantics on real hardware, so writes are dispatched at once.
func (c *Controller) WriteGP1(v uint32) {
	if c.decoder != nil {
		c.decoder.HandleGP1(v)
	}
}

// SetDisplayEnable lets a GP1(0x03) handler toggle the display-enable bit.
func (c *Controller) SetDisplayEnable(enabled bool) { c.displayEnable = enabled }

// SetResolution lets a GP1(0x08) handler set the STAT resolution fields.
func (c *Controller) SetResolution(hres, vres uint8) { c.hres, c.vres = hres, vres }

// DrawingOdd reports the CRTC's current interlace field parity.
func (c *Controller) DrawingOdd() bool { return c.drawingOdd }

// ReadGPUREAD drains the READ FIFO.
func (c *Controller) ReadGPUREAD() (uint32, error) { return c.read.ReadOne() }

// PushReadWord lets the external collaborator supply a word for GPUREAD.
func (c *Controller) PushReadWord(v uint32) error { return c.read.WriteOne(v) }

// ReadSTAT synthesizes the STAT register as a pure function of controller
// state at read time.
func (c *Controller) ReadSTAT() uint32 {
	var v uint32
	if c.recvCmdReady {
		v |= 1 << 26
	}
	if c.sendVRAMReady {
		v |= 1 << 27
	}
	if c.recvDMAReady {
		v |= 1 << 28
	}
	if c.drawingOdd {
		v |= 1 << 31
	}
	if c.displayEnable {
		v |= 1 << 23
	}
	v |= uint32(c.hres) << 16
	v |= uint32(c.vres) << 19
	return v
}

// Tick drains the GP0 FIFO into the decoder (if any) and advances the
// CRTC's scanline/frame accumulators.
func (c *Controller) Tick(deltaSeconds float64) {
	for !c.gp0.IsEmpty() {
		word, err := c.gp0.ReadOne()
		if err != nil {
			break
		}
		if c.decoder != nil {
			c.decoder.HandleGP0(word)
		}
	}

	c.scanlineAccum += deltaSeconds
	for c.scanlineAccum >= c.ScanlinePeriodS {
		c.scanlineAccum -= c.ScanlinePeriodS
		c.drawingOdd = !c.drawingOdd
	}

	c.frameAccum += deltaSeconds
	if c.frameAccum >= c.FramePeriodS {
		c.frameAccum -= c.FramePeriodS
		c.intc.Assert(addr.IRQVBlank)
		slog.Debug("gpu vblank")
	}
}

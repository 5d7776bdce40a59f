// Package dmac implements the seven-channel DMA controller: MADR/BCR/CHCR
// per channel, DPCR/DICR, the three sync modes (continuous, blocks,
// linked-list), the synthetic OTC channel, and IRQ aggregation.
package dmac

import (
	"fmt"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bit"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

// Peer is the narrow interface a DMA channel's target (GPU, SPU, CD-ROM,
// PIO, MDEC) must satisfy. Not-ready is communicated by ok=false, which
// makes the channel yield for this step rather than fail.
type Peer interface {
	PullWord() (v uint32, ok bool) // peer -> RAM (FromChannel direction)
	PushWord(v uint32) (ok bool)   // RAM -> peer (ToChannel direction)
}

// RAM is the narrow interface the controller needs into main memory.
type RAM interface {
	ReadU32(addr uint32) uint32
	WriteU32(addr uint32, v uint32)
}

// CHCR bitfields.
const (
	chcrDirection    = 0 // 0 = to RAM (FromChannel), 1 = from RAM (ToChannel)
	chcrStepBackward = 1
	chcrSyncModeLo   = 9
	chcrSyncModeHi   = 10
	chcrStartBusy    = 24
	chcrStartTrigger = 28
)

type SyncMode int

const (
	SyncContinuous SyncMode = iota
	SyncBlocks
	SyncLinkedList
)

type channel struct {
	madr, bcr, chcr uint32
	cooloff         int
}

// Controller owns all seven channels plus DPCR/DICR.
type Controller struct {
	channels [addr.DmacChannelCount]channel
	dpcr     uint32
	dicr     uint32

	peers [addr.DmacChannelCount]Peer
	ram   RAM
	intc  *intc.Controller

	busLocked bool

	// CooloffRuns is the number of future ticks a channel skips after a
	// not-ready peer yields it; exposed as a tunable per the Open
	// Question in DESIGN.md rather than hardcoded.
	CooloffRuns int
}

func New(ram RAM, ic *intc.Controller) *Controller {
	return &Controller{ram: ram, intc: ic, CooloffRuns: 4}
}

// SetPeer wires a channel's transfer target (GPU/SPU/CDROM/PIO/MDEC).
// OTC needs no peer: it is a synthetic FromChannel transfer.
func (c *Controller) SetPeer(channelID int, p Peer) { c.peers[channelID] = p }

func (c *Controller) ReadDPCR() uint32   { return c.dpcr }
func (c *Controller) WriteDPCR(v uint32) { c.dpcr = v }

func (c *Controller) ReadDICR() uint32 { return c.dicr }

// WriteDICR applies the documented semantics: the low 24 bits (enables,
// force-irq) are plain writes; the per-channel flag bits (24-30) are
// write-1-to-clear; bit 31 (master flag) is recomputed by handleIRQCheck,
// never written directly.
func (c *Controller) WriteDICR(v uint32) {
	keep := c.dicr & 0x7F00_0000 &^ (v & 0x7F00_0000)
	c.dicr = (v & 0x00FF_FFFF) | keep | (c.dicr & 0x8000_0000)
	c.handleIRQCheck()
}

func (c *Controller) chcrEnabled(id int) bool { return bit.IsSet32(c.dpcr, uint(id*4+3)) }

func (c *Controller) ReadChannel(id int) (madr, bcr, chcr uint32) {
	ch := &c.channels[id]
	return ch.madr, ch.bcr, ch.chcr
}

func (c *Controller) WriteMADR(id int, v uint32) { c.channels[id].madr = v }
func (c *Controller) WriteBCR(id int, v uint32)  { c.channels[id].bcr = v }
func (c *Controller) WriteCHCR(id int, v uint32) { c.channels[id].chcr = v }

func syncModeOf(chcr uint32) SyncMode {
	return SyncMode(bit.ExtractBits32(chcr, chcrSyncModeHi, chcrSyncModeLo))
}

func started(chcr uint32) bool {
	return bit.IsSet32(chcr, chcrStartBusy) && bit.IsSet32(chcr, chcrStartTrigger)
}

// Tick runs one scheduling slice: for every enabled, started channel in
// fixed order 0..6, attempt a transfer. A channel that cannot make
// progress (peer not ready) yields and enters a cooldown of CooloffRuns
// further ticks.
func (c *Controller) Tick() error {
	c.busLocked = false
	for id := 0; id < addr.DmacChannelCount; id++ {
		ch := &c.channels[id]
		if ch.cooloff > 0 {
			ch.cooloff--
			continue
		}
		if !c.chcrEnabled(id) || !started(ch.chcr) {
			continue
		}
		c.busLocked = true
		if err := c.handleTransfer(id); err != nil {
			return err
		}
	}
	c.handleIRQCheck()
	return nil
}

// BusLocked reports whether any channel was actively transferring during
// the last tick; the R3000's memory controller consults this to decide
// whether to return a BusLockedMemory hazard.
func (c *Controller) BusLocked() bool { return c.busLocked }

func (c *Controller) handleTransfer(id int) error {
	ch := &c.channels[id]

	var ok bool
	var err error
	switch id {
	case addr.DmacChanOTC:
		ok, err = c.transferOTC(ch)
	default:
		switch syncModeOf(ch.chcr) {
		case SyncContinuous:
			ok, err = c.transferContinuous(id, ch)
		case SyncBlocks:
			ok, err = c.transferBlocks(id, ch)
		case SyncLinkedList:
			if id != addr.DmacChanGPU {
				return fmt.Errorf("dmac: linked-list sync mode only valid for GPU channel, got channel %d", id)
			}
			ok, err = c.transferLinkedList(ch)
		}
	}
	if err != nil {
		return err
	}
	if !ok {
		ch.cooloff = c.CooloffRuns
		return nil
	}

	ch.chcr = bit.InsertBits32(ch.chcr, 0, chcrStartBusy, chcrStartBusy)
	ch.chcr = bit.InsertBits32(ch.chcr, 0, chcrStartTrigger, chcrStartTrigger)
	c.dicr = bit.Set32(c.dicr, uint(24+id))
	slog.Debug("dmac channel complete", "channel", id)
	return nil
}

func stepFor(chcr uint32) int32 {
	if bit.IsSet32(chcr, chcrStepBackward) {
		return -4
	}
	return 4
}

func (c *Controller) transferContinuous(id int, ch *channel) (bool, error) {
	words := ch.bcr & 0xFFFF
	if words == 0 {
		words = 0x10000
	}
	toRAM := !bit.IsSet32(ch.chcr, chcrDirection)
	step := stepFor(ch.chcr)
	peer := c.peers[id]

	for i := uint32(0); i < words; i++ {
		if toRAM {
			v, ok := peer.PullWord()
			if !ok {
				return false, nil
			}
			c.ram.WriteU32(ch.madr, v)
		} else {
			v := c.ram.ReadU32(ch.madr)
			if !peer.PushWord(v) {
				return false, nil
			}
		}
		ch.madr = uint32(int64(ch.madr) + int64(step))
	}
	return true, nil
}

func (c *Controller) transferBlocks(id int, ch *channel) (bool, error) {
	blockSize := ch.bcr & 0xFFFF
	blockAmount := (ch.bcr >> 16) & 0xFFFF
	toRAM := !bit.IsSet32(ch.chcr, chcrDirection)
	step := stepFor(ch.chcr)
	peer := c.peers[id]

	for b := uint32(0); b < blockAmount; b++ {
		for w := uint32(0); w < blockSize; w++ {
			if toRAM {
				v, ok := peer.PullWord()
				if !ok {
					return false, nil
				}
				c.ram.WriteU32(ch.madr, v)
			} else {
				v := c.ram.ReadU32(ch.madr)
				if !peer.PushWord(v) {
					return false, nil
				}
			}
			ch.madr = uint32(int64(ch.madr) + int64(step))
		}
	}
	return true, nil
}

// linkedListTerminal is the sentinel ending a GP0 linked list.
const linkedListTerminal = 0x00FF_FFFF

func (c *Controller) transferLinkedList(ch *channel) (bool, error) {
	peer := c.peers[addr.DmacChanGPU]
	header := ch.madr

	for {
		word := c.ram.ReadU32(header)
		nextHeader := word & 0x00FF_FFFF
		count := (word >> 24) & 0xFF

		for i := uint32(0); i < count; i++ {
			v := c.ram.ReadU32(header + 4 + i*4)
			if !peer.PushWord(v) {
				ch.madr = header
				return false, nil
			}
		}

		if nextHeader == linkedListTerminal || header == 0 {
			ch.madr = linkedListTerminal
			return true, nil
		}
		header = nextHeader
	}
}

// transferOTC writes a descending chain of pointers into main memory,
// terminated by the sentinel 0x00FF_FFFF, with no physical peer.
func (c *Controller) transferOTC(ch *channel) (bool, error) {
	words := ch.bcr & 0xFFFF
	if words == 0 {
		words = 0x10000
	}
	addrCur := ch.madr
	for i := uint32(0); i < words; i++ {
		if i == words-1 {
			c.ram.WriteU32(addrCur, linkedListTerminal)
		} else {
			c.ram.WriteU32(addrCur, (addrCur-4)&0x00FF_FFFF)
		}
		addrCur -= 4
	}
	return true, nil
}

// handleIRQCheck recomputes the master IRQ bit: OR of (per-channel enable
// & per-channel flag) possibly OR'd with force-irq, asserting the DMA
// line on a 0->1 transition.
func (c *Controller) handleIRQCheck() {
	before := bit.IsSet32(c.dicr, 31)

	anyChannel := false
	for id := 0; id < addr.DmacChannelCount; id++ {
		enabled := bit.IsSet32(c.dicr, uint(16+id))
		flagged := bit.IsSet32(c.dicr, uint(24+id))
		if enabled && flagged {
			anyChannel = true
			break
		}
	}
	forceIRQ := bit.IsSet32(c.dicr, 15)
	masterEnable := bit.IsSet32(c.dicr, 23)

	master := forceIRQ || (masterEnable && anyChannel)
	if master {
		c.dicr = bit.Set32(c.dicr, 31)
	} else {
		c.dicr = bit.Reset32(c.dicr, 31)
	}

	if master && !before {
		c.intc.Assert(addr.IRQDMA)
		slog.Debug("dmac irq asserted")
	}
}

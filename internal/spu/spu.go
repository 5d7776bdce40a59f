// Package spu implements the Sound Processing Unit: 24 ADPCM voices each
// running decode -> ADSR -> pitch -> volume -> mix, plus the SPURAM
// transfer submachine. GP-level backend playback is out of scope; this
// package produces interleaved PCM frames for an external consumer.
package spu

import (
	"errors"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/bit"
	"github.com/cantrip-labs/psxcore/internal/bus"
)

const (
	VoiceCount = 24
	ramSize    = 512 * 1024

	blockSize = 16 // 2-byte header + 14 packed bytes
)

// ErrUnsupportedTransferMode reports a data-transfer-control value other
// than 0x4 (normal mode), which the transfer submachine leaves unimplemented
// in every direction, matching the upstream implementation's own
// unimplemented paths for anything but manual-write normal-mode transfers.
var ErrUnsupportedTransferMode = errors.New("spu: data transfer control not in normal mode")

// transferMode mirrors the 2-bit SPUCNT transfer-mode field.
type transferMode uint8

const (
	transferStop transferMode = iota
	transferManualWrite
	transferDMAWrite
	transferDMARead
)

type voice struct {
	currentAddress uint32
	startAddress   uint32
	repeatAddress  uint32

	adpcm adpcmState
	adsr  adsrState

	adsrParams       [2]adsrPhaseParams // decay/sustain params decoded lazily per-tick from ADSR1/ADSR2 in a full register model; held here for the modeled subset
	pitch            uint16
	volumeLeft       int16
	volumeRight      int16
	sampleCursor     int
	copyRepeatQueued bool
	keyedOn          bool
}

// Controller owns the 24 voices, SPURAM, and the data-transfer submachine.
type Controller struct {
	voices [VoiceCount]voice
	ram    *bus.B8Memory

	control            uint32 // SPUCNT
	stat               uint32 // SPUSTAT
	dataTransferCtrl   uint16
	dataTransferAddr   uint16
	dataTransferLatch  bool
	currentTransferAddr uint32
	currentMode        transferMode

	dataFIFO *bus.FIFO[uint16]
	endx     uint32

	mainVolumeLeft, mainVolumeRight int16

	SampleRateHz float64
	accum        float64
}

func New() *Controller {
	return &Controller{
		ram:          bus.NewB8Memory(ramSize),
		dataFIFO:     bus.NewFIFO[uint16](32),
		SampleRateHz: 44100,
	}
}

// WriteDataTransferAddr latches SPU_ADDR; applied on the next Tick per the
// documented current_transfer_address update-before-dispatch ordering.
func (c *Controller) WriteDataTransferAddr(v uint16) {
	c.dataTransferAddr = v
	c.dataTransferLatch = true
}

func (c *Controller) WriteDataTransferCtrl(v uint16) { c.dataTransferCtrl = v }

func (c *Controller) ReadControl() uint32  { return c.control }
func (c *Controller) WriteControl(v uint32) { c.control = v }
func (c *Controller) ReadStat() uint32     { return c.stat }

// PushFIFO feeds a manual-write transfer's source data (the CPU writing
// SPU_DATA repeatedly).
func (c *Controller) PushFIFO(v uint16) error { return c.dataFIFO.WriteOne(v) }

func (c *Controller) transferModeFromControl() transferMode {
	return transferMode(bit.ExtractBits32(c.control, 5, 4))
}

// Tick runs one SPU cycle: resolve any pending transfer-address latch,
// dispatch the transfer submachine, and step every voice's ADPCM/ADSR
// pipeline, returning a mixed stereo frame.
func (c *Controller) Tick() (left, right int16, err error) {
	c.handleCurrentTransferAddress()
	if err := c.handleTransfer(); err != nil {
		return 0, 0, err
	}

	var mixLeft, mixRight int32
	for i := range c.voices {
		l, r := c.stepVoice(i)
		mixLeft += int32(l)
		mixRight += int32(r)
	}

	mixLeft = (mixLeft * int32(c.mainVolumeLeft)) >> 15
	mixRight = (mixRight * int32(c.mainVolumeRight)) >> 15

	return bit.Clip16(mixLeft), bit.Clip16(mixRight), nil
}

func (c *Controller) handleCurrentTransferAddress() {
	if !c.dataTransferLatch {
		return
	}
	if c.transferModeFromControl() != transferStop {
		slog.Warn("spu: data transfer address write while transfer in progress")
	}
	c.currentTransferAddr = uint32(c.dataTransferAddr) * 8
	c.dataTransferLatch = false
}

func (c *Controller) handleTransfer() error {
	switch c.currentMode {
	case transferStop:
		c.handleNewTransferInit()
		return nil
	case transferManualWrite:
		return c.handleManualWrite()
	case transferDMAWrite, transferDMARead:
		return ErrUnsupportedTransferMode
	default:
		return ErrUnsupportedTransferMode
	}
}

func (c *Controller) handleNewTransferInit() {
	mode := c.transferModeFromControl()
	if mode != transferStop {
		c.currentMode = mode
		c.stat = bit.Set32(c.stat, 10) // data busy flag
	}
	c.stat = bit.InsertBits32(c.stat, bit.ExtractBits32(c.control, 5, 4), 5, 4)
}

func (c *Controller) handleManualWrite() error {
	if c.dataTransferCtrl != 0x4 {
		return ErrUnsupportedTransferMode
	}

	v, err := c.dataFIFO.ReadOne()
	if err != nil {
		c.control = bit.InsertBits32(c.control, 0, 5, 4)
		c.stat = bit.Reset32(c.stat, 10)
		c.stat = bit.InsertBits32(c.stat, 0, 5, 4)
		c.currentMode = transferStop
		return nil
	}

	c.ram.WriteU16(c.currentTransferAddr, v)
	c.currentTransferAddr = (c.currentTransferAddr + 2) & 0x7FFFF
	return nil
}

// stepVoice runs one voice's decode(when needed)/ADSR/volume pipeline and
// returns its contribution to the stereo mix.
func (c *Controller) stepVoice(id int) (int16, int16) {
	v := &c.voices[id]
	if !v.keyedOn {
		return 0, 0
	}

	if v.sampleCursor == 0 {
		c.decodeVoiceBlock(id)
	}

	sample := v.adpcm.sampleBuffer[v.sampleCursor]
	v.sampleCursor = (v.sampleCursor + 1) % 28

	v.adsr.tick(v.adsrParams[0])
	scaled := (int32(sample) * int32(v.adsr.currentVol)) >> 15

	left := bit.Clip16((scaled * int32(v.volumeLeft)) >> 15)
	right := bit.Clip16((scaled * int32(v.volumeRight)) >> 15)
	return left, right
}

// decodeVoiceBlock reads a 16-byte block at the voice's current address
// and decodes it, handling the loop-repeat-address deferred copy and the
// loop-end auto-release transition.
func (c *Controller) decodeVoiceBlock(id int) {
	v := &c.voices[id]

	if v.copyRepeatQueued {
		v.currentAddress = v.repeatAddress
		v.copyRepeatQueued = false
	}

	var raw [blockSize]byte
	copy(raw[:], c.ram.ReadRaw(v.currentAddress))
	hdr := v.adpcm.decodeBlock(raw)

	if hdr.loopStart {
		v.repeatAddress = v.currentAddress
	}

	if hdr.loopEnd {
		v.copyRepeatQueued = true
		c.endx = bit.Set32(c.endx, uint(id))
		if !hdr.loopRepeat {
			v.adsr.phase = adsrRelease
			v.adsr.currentVol = 0
			v.adsr.nextVol = 0
			v.adsr.waitCycles = 0
			v.keyedOn = false
		}
	}

	v.currentAddress += blockSize
}

// KeyOn starts a voice playing from its configured start address.
func (c *Controller) KeyOn(id int) {
	v := &c.voices[id]
	v.currentAddress = v.startAddress
	v.sampleCursor = 0
	v.adpcm = adpcmState{}
	v.adsr = adsrState{phase: adsrAttack}
	v.keyedOn = true
}

func (c *Controller) KeyOff(id int) {
	c.voices[id].adsr.phase = adsrRelease
}

func (c *Controller) SetStartAddress(id int, blockAddr uint32) { c.voices[id].startAddress = blockAddr }
func (c *Controller) SetVolume(id int, left, right int16)      { c.voices[id].volumeLeft, c.voices[id].volumeRight = left, right }
func (c *Controller) SetMainVolume(left, right int16)          { c.mainVolumeLeft, c.mainVolumeRight = left, right }

// RAM exposes SPURAM for BIOS/game uploads outside of the DMA path.
func (c *Controller) RAM() *bus.B8Memory { return c.ram }

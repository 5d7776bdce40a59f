package spu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/spu"
)

func TestADPCMBlockAllZeroDecodesToSilence(t *testing.T) {
	c := spu.New()
	c.SetStartAddress(0, 0) // block at address 0 is all-zero by default (fresh RAM)
	c.SetVolume(0, 0x7FFF, 0x7FFF)
	c.SetMainVolume(0x7FFF, 0x7FFF)
	c.WriteVoiceADSR(0, 0x0F0F, 0x0000) // attack step 15, shift 16: volume is nonzero after the first tick
	c.KeyOn(0)

	for i := 0; i < 28; i++ {
		l, r, err := c.Tick()
		assert.NoError(t, err)
		assert.Equal(t, int16(0), l)
		assert.Equal(t, int16(0), r)
	}
}

func TestManualWriteTransferDrainsFIFOIntoRAM(t *testing.T) {
	c := spu.New()
	c.WriteDataTransferCtrl(0x4)
	c.WriteDataTransferAddr(0) // *8 => SPURAM offset 0
	c.WriteControl(0x1 << 4)   // transfer mode bits = 1 (manual write)

	assert.NoError(t, c.PushFIFO(0xBEEF))

	_, _, err := c.Tick() // latches address + initializes transfer mode
	assert.NoError(t, err)
	_, _, err = c.Tick() // drains the one queued word
	assert.NoError(t, err)

	assert.Equal(t, uint16(0xBEEF), c.RAM().ReadU16(0))
}

func TestUnsupportedTransferModeReturnsError(t *testing.T) {
	c := spu.New()
	c.WriteDataTransferCtrl(0x4)
	c.WriteControl(0x2 << 4) // DmaWrite

	_, _, err := c.Tick()
	assert.NoError(t, err) // Stop->init transition consumes this tick
	_, _, err = c.Tick()
	assert.ErrorIs(t, err, spu.ErrUnsupportedTransferMode)
}

func TestKeyOnClearsENDXAndKeyOffReleases(t *testing.T) {
	c := spu.New()
	c.WriteKON(1 << 3)
	assert.Equal(t, uint32(0), c.ReadENDX())

	c.WriteKOFF(1 << 3)
}

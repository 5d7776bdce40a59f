// Package psxcore_test exercises the six deterministic end-to-end
// scenarios against a fully wired console, in the same top-level
// black-box style as the teacher's own integration suite: construct the
// whole system, drive it through its public surface, assert on
// observable state.
package psxcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/cdrom"
	"github.com/cantrip-labs/psxcore/internal/scheduler"
)

func littleEndian(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// Scenario 1: boot vector.
func TestBootVector(t *testing.T) {
	bios := make([]byte, addr.BIOSSize)
	word := littleEndian(0x1234_5678)
	copy(bios[0:4], word[:])

	s := scheduler.New(bios)

	assert.Equal(t, addr.ResetVector, s.CPU.PC)
	assert.True(t, s.CPU.CP0().Status&(1<<22) != 0, "Status.BEV must be 1 at reset")
	assert.Equal(t, uint32(0), s.CPU.GPR(0))

	fetched, err := s.Bus.ReadU32(s.CPU.PC)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1234_5678), fetched)
}

// Scenario 2: interrupt delivery on a VBLANK assertion.
func TestInterruptDeliveryOnVBlank(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	s.CPU.CP0().Status = (1 << 0) | (1 << 10) // IEC=1, IM bit 10=1
	s.INTC.WriteMask(1 << addr.IRQVBlank)
	s.INTC.Assert(addr.IRQVBlank)
	s.INTC.Tick()
	s.CPU.SetIntcLine(s.INTC.Line())

	pcBeforeException := s.CPU.PC
	_, err := s.CPU.Tick()
	assert.NoError(t, err)

	assert.Equal(t, addr.ExceptionVectorGeneral, s.CPU.PC)
	assert.Equal(t, pcBeforeException, s.CPU.CP0().EPC)
	assert.NotZero(t, s.CPU.CP0().Cause&(1<<10), "Cause.IP bit 10 must be set")
	assert.Zero(t, s.CPU.CP0().Status&0b11, "Status KUc/IEc must both clear on exception entry")
}

// Scenario 3: OTC DMA backward linked-list clear.
func TestOTCDMA(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	s.DMAC.WriteDPCR(1 << (addr.DmacChanOTC*4 + 3))
	s.DMAC.WriteMADR(addr.DmacChanOTC, 0x0010_0000)
	s.DMAC.WriteBCR(addr.DmacChanOTC, 4)

	chcr := uint32(0)
	chcr |= 1 << 1  // step backward
	chcr |= 1 << 24 // start/busy
	chcr |= 1 << 28 // start/trigger
	s.DMAC.WriteCHCR(addr.DmacChanOTC, chcr)

	assert.NoError(t, s.DMAC.Tick())

	word0, _ := s.Bus.ReadU32(0x0010_0000)
	word1, _ := s.Bus.ReadU32(0x000F_FFFC)
	word2, _ := s.Bus.ReadU32(0x000F_FFF8)
	word3, _ := s.Bus.ReadU32(0x000F_FFF4)
	assert.Equal(t, uint32(0x000F_FFFC), word0)
	assert.Equal(t, uint32(0x000F_FFF8), word1)
	assert.Equal(t, uint32(0x000F_FFF4), word2)
	assert.Equal(t, uint32(0x00FF_FFFF), word3)
}

// Scenario 4: CD-ROM Getstat (0x01).
func TestCDROMGetstat(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	s.INTC.WriteMask(1 << addr.IRQCDROM)
	assert.NoError(t, s.CDROM.WriteRegister(3, 0x1F)) // index 0: unmask all interrupt sources

	assert.NoError(t, s.CDROM.WriteRegister(1, 0x01)) // command register write, Getstat
	assert.NoError(t, s.CDROM.Tick())

	resp, err := s.CDROM.ReadRegister(1) // response FIFO, index 0
	assert.NoError(t, err)
	assert.Equal(t, uint8(0b0000_0010), resp)

	s.CDROM.WriteIndexStatus(1) // select index 1 to read interrupt_flag
	flagByte, err := s.CDROM.ReadRegister(3)
	assert.NoError(t, err)
	assert.Equal(t, uint8(cdrom.Int3Acknowledge), flagByte&0x1F)

	s.INTC.Tick()
	assert.True(t, s.INTC.Line())

	assert.NoError(t, s.CDROM.WriteRegister(3, 0x07)) // ack INT1-INT3
	flagByte, err = s.CDROM.ReadRegister(3)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0), flagByte&0x1F)
}

// Scenario 5: Timer 2 system/8 overflow.
func TestTimer2System8Overflow(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))
	s.INTC.WriteMask(1 << addr.IRQTimer2)

	mode := uint32(0)
	mode |= 2 << 8 // clock source select = 2 (System/8 for timer 2)
	mode |= 1 << 5 // irq-on-overflow
	assert.NoError(t, s.Timers.WriteMode(2, mode))
	s.Timers.WriteTarget(2, 0)

	ticksNeeded := float64(0x1_0000)
	seconds := ticksNeeded / (s.Timers.SystemClockHz / 8)

	assert.NoError(t, s.Timers.Tick(seconds))
	s.INTC.Tick()

	mAfter := s.Timers.ReadMode(2)
	assert.NotZero(t, mAfter&(1<<12), "overflow-hit sticky bit must be set")
	assert.True(t, s.INTC.Line(), "INTC timer2 line must be asserted")
}

// Scenario 6: SPU ADPCM block, all-zero samples decode to silence.
func TestSPUADPCMBlockAllZeroDecodesToSilence(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	s.SPU.SetStartAddress(0, 0) // block at address 0 is all-zero by default (fresh RAM)
	s.SPU.SetVolume(0, 0x7FFF, 0x7FFF)
	s.SPU.SetMainVolume(0x7FFF, 0x7FFF)
	s.SPU.WriteVoiceADSR(0, 0x0F0F, 0x0000) // attack step 15, shift 16: volume is nonzero after the first tick
	s.SPU.KeyOn(0)

	for i := 0; i < 28; i++ {
		l, r, err := s.SPU.Tick()
		assert.NoError(t, err)
		assert.Equal(t, int16(0), l)
		assert.Equal(t, int16(0), r)
	}
}

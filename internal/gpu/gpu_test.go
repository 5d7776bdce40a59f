package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/gpu"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

type recordingDecoder struct {
	gp0Words []uint32
	gp1Words []uint32
}

func (d *recordingDecoder) HandleGP0(word uint32) { d.gp0Words = append(d.gp0Words, word) }
func (d *recordingDecoder) HandleGP1(word uint32) { d.gp1Words = append(d.gp1Words, word) }

func TestGP0DrainedThroughDecoderOnTick(t *testing.T) {
	ic := intc.New()
	dec := &recordingDecoder{}
	c := gpu.New(ic, dec)

	assert.NoError(t, c.WriteGP0(0xDEADBEEF))
	c.Tick(0)

	assert.Equal(t, []uint32{0xDEADBEEF}, dec.gp0Words)
}

func TestVBlankAssertsIntcLineOncePerFrame(t *testing.T) {
	ic := intc.New()
	c := gpu.New(ic, nil)
	ic.Tick()
	assert.False(t, ic.Line())

	c.Tick(c.FramePeriodS)
	ic.WriteMask(1)
	ic.Tick()
	assert.True(t, ic.Line())
}

func TestDrawingOddTogglesEachScanline(t *testing.T) {
	ic := intc.New()
	c := gpu.New(ic, nil)

	before := c.DrawingOdd()
	c.Tick(c.ScanlinePeriodS)
	assert.NotEqual(t, before, c.DrawingOdd())
}

func TestSTATReflectsResolutionAndDisplayEnable(t *testing.T) {
	ic := intc.New()
	c := gpu.New(ic, nil)

	c.SetDisplayEnable(true)
	c.SetResolution(1, 1)

	stat := c.ReadSTAT()
	assert.NotZero(t, stat&(1<<23))
	assert.NotZero(t, stat&(1<<16))
	assert.NotZero(t, stat&(1<<19))
}

package cdrom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/cdrom"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

func TestGetstatRespondsAndRaisesInt3(t *testing.T) {
	ic := intc.New()
	ic.WriteMask(1 << 2) // unmask the CDROM line (bit 2)
	c := cdrom.New(ic, nil)

	assert.NoError(t, c.WriteRegister(3, 0x1F)) // index 0: unmask all interrupt sources
	assert.NoError(t, c.WriteRegister(1, 0x01)) // command register write, Getstat
	assert.NoError(t, c.Tick())

	b, err := c.ReadRegister(1)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0b0000_0010), b)

	// select index 1 to read interrupt_flag at offset 3
	assert.NoError(t, c.WriteRegister(0, 1))
	flagByte, err := c.ReadRegister(3)
	assert.NoError(t, err)
	assert.Equal(t, uint8(cdrom.Int3Acknowledge), flagByte&0x1F)

	ic.Tick()
	assert.True(t, ic.Line())

	assert.NoError(t, c.WriteRegister(3, 0x07)) // ack INT1-INT3
	flagByte, err = c.ReadRegister(3)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0), flagByte&0x1F)
}

func TestCommandBusyRejectsSecondWrite(t *testing.T) {
	ic := intc.New()
	c := cdrom.New(ic, nil)

	assert.NoError(t, c.WriteRegister(1, 0x01))
	assert.ErrorIs(t, c.WriteRegister(1, 0x01), cdrom.ErrCommandBusy)
}

func TestUnknownCommandErrors(t *testing.T) {
	ic := intc.New()
	c := cdrom.New(ic, nil)

	assert.NoError(t, c.WriteRegister(1, 0xFF))
	assert.ErrorIs(t, c.Tick(), cdrom.ErrUnknownCommand)
}

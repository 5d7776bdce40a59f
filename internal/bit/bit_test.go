package bit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/bit"
)

func TestSetResetIsSet(t *testing.T) {
	var v uint32
	v = bit.Set32(v, 3)
	assert.True(t, bit.IsSet32(v, 3))
	v = bit.Reset32(v, 3)
	assert.False(t, bit.IsSet32(v, 3))
}

func TestExtractInsertBits32(t *testing.T) {
	v := uint32(0xDEADBEEF)
	field := bit.ExtractBits32(v, 15, 8)
	assert.Equal(t, uint32(0xBE), field)

	inserted := bit.InsertBits32(v, 0xFF, 15, 8)
	assert.Equal(t, uint32(0xDEADFFEF), inserted)
}

func TestAcknowledgeMask32(t *testing.T) {
	current := uint32(0b1111)
	ack := bit.AcknowledgeMask32(current, 0b0101)
	assert.Equal(t, uint32(0b1010), ack)
}

func TestClip16(t *testing.T) {
	assert.Equal(t, int16(32767), bit.Clip16(40000))
	assert.Equal(t, int16(-32768), bit.Clip16(-40000))
	assert.Equal(t, int16(100), bit.Clip16(100))
}

package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bus"
)

func TestB8MemoryRoundTrip(t *testing.T) {
	m := bus.NewB8Memory(4)
	m.WriteU8(0, 0x00)
	m.WriteU8(1, 0x11)
	m.WriteU8(2, 0x22)
	m.WriteU8(3, 0x33)

	assert.Equal(t, uint16(0x1100), m.ReadU16(0))
	assert.Equal(t, uint16(0x3322), m.ReadU16(2))
	assert.Equal(t, uint32(0x33221100), m.ReadU32(0))

	// read_u32(a) = read_u16(a) | read_u16(a+2)<<16
	assert.Equal(t, uint32(m.ReadU16(0))|uint32(m.ReadU16(2))<<16, m.ReadU32(0))
}

func TestFIFOEmptyFullInvariants(t *testing.T) {
	f := bus.NewFIFO[byte](4)
	assert.True(t, f.IsEmpty())
	assert.Equal(t, 0, f.ReadAvailable())

	assert.NoError(t, f.WriteOne(1))
	assert.NoError(t, f.WriteOne(2))
	assert.False(t, f.IsEmpty())
	assert.Equal(t, 2, f.ReadAvailable())
	assert.Equal(t, 2, f.WriteAvailable())

	assert.NoError(t, f.WriteOne(3))
	assert.NoError(t, f.WriteOne(4))
	assert.True(t, f.IsFull())
	assert.ErrorIs(t, f.WriteOne(5), bus.ErrFIFOFull)

	v, err := f.ReadOne()
	assert.NoError(t, err)
	assert.Equal(t, byte(1), v)

	f.Clear()
	assert.True(t, f.IsEmpty())
	_, err = f.ReadOne()
	assert.ErrorIs(t, err, bus.ErrFIFOEmpty)
}

func TestEdgeRegisterLatchRejectsSecondWrite(t *testing.T) {
	var r bus.EdgeRegister32
	assert.True(t, r.Write(0x1234))
	assert.False(t, r.Write(0x5678), "write without intervening ack must be rejected")
	r.AcknowledgeWrite()
	assert.True(t, r.Write(0x5678))
}

func TestTranslateIdempotentOnPhysical(t *testing.T) {
	va := addr.Kseg0Base + 0x1000
	pa1, _ := bus.Translate(va)
	pa2, _ := bus.Translate(pa1)
	assert.Equal(t, pa1, pa2)
}

func TestBusMapAndDispatch(t *testing.T) {
	b := bus.New()
	ram := bus.NewB8Memory(int(addr.RAMSize))
	b.Map(addr.RAMBase, addr.RAMSize, bus.NewMemoryHandler("ram", ram))

	assert.NoError(t, b.WriteU32(addr.Kseg0Base+0x10, 0xCAFEBABE))
	v, err := b.ReadU32(addr.RAMBase + 0x10)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/backend"
)

func TestStubVideoReportsUnsupported(t *testing.T) {
	v := backend.StubVideo{}
	assert.NoError(t, v.Init(backend.VideoConfig{}))
	assert.ErrorIs(t, v.Present(0, 0, false), backend.ErrUnsupported)
	assert.NoError(t, v.Cleanup())
}

func TestStubAudioReportsUnsupported(t *testing.T) {
	a := backend.StubAudio{}
	assert.NoError(t, a.Init(backend.AudioConfig{}))
	assert.ErrorIs(t, a.PushSamples(0, 0), backend.ErrUnsupported)
}

func TestStubCDROMReportsUnsupported(t *testing.T) {
	c := backend.StubCDROM{}
	assert.NoError(t, c.Init("disc.bin"))
	_, err := c.ReadSector(0)
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

type fakeCDROM struct {
	sectors map[uint32][]byte
}

func (f fakeCDROM) Init(string) error { return nil }
func (f fakeCDROM) ReadSector(lba uint32) ([]byte, error) {
	return f.sectors[lba], nil
}
func (f fakeCDROM) Cleanup() error { return nil }

func TestCDROMAdapterNarrowsToReadSector(t *testing.T) {
	fake := fakeCDROM{sectors: map[uint32][]byte{7: {1, 2, 3}}}
	adapter := backend.CDROMAdapter{Backend: fake}

	data, err := adapter.ReadSector(7)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

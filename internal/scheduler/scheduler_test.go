package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/backend"
	"github.com/cantrip-labs/psxcore/internal/scheduler"
)

func TestNewWiresComponentsAndBootsAtResetVector(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	assert.Equal(t, addr.ResetVector, s.CPU.PC)
	assert.False(t, s.DMAC.BusLocked())
}

func TestSequentialRunSlicesAdvancesWithoutError(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))

	err := s.RunSlices(4, 1.0/60.0)
	assert.NoError(t, err)
}

func TestParallelModeRunsWithoutError(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))
	s.Mode = scheduler.Parallel

	err := s.RunSlices(2, 1.0/60.0)
	assert.NoError(t, err)
}

func TestIntcLinePropagatesToCPUAfterSlice(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))
	s.CPU.CP0().Status = (1 << 0) | (1 << 10) // IEC=1, IM bit 10=1
	s.INTC.WriteMask(1 << addr.IRQVBlank)
	s.INTC.Assert(addr.IRQVBlank)

	assert.NoError(t, s.Time(1.0/60.0))

	_, err := s.CPU.Tick()
	assert.NoError(t, err)
	assert.Equal(t, addr.ExceptionVectorGeneral, s.CPU.PC, "pending INTC line from the prior slice must be visible to this CPU tick")
}

type recordingVideoBackend struct {
	presented int
}

func (r *recordingVideoBackend) Init(backend.VideoConfig) error { return nil }
func (r *recordingVideoBackend) Present(hres, vres uint8, drawingOdd bool) error {
	r.presented++
	return nil
}
func (r *recordingVideoBackend) Cleanup() error { return nil }

func TestSequentialModePresentsVideoFrameEachSlice(t *testing.T) {
	s := scheduler.New(make([]byte, addr.BIOSSize))
	rec := &recordingVideoBackend{}
	s.SetVideoBackend(rec)

	assert.NoError(t, s.RunSlices(3, 1.0/60.0))
	assert.Equal(t, 3, rec.presented)
}

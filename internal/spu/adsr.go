package spu

// adsrPhase mirrors the four documented envelope phases.
type adsrPhase int

const (
	adsrAttack adsrPhase = iota
	adsrDecay
	adsrSustain
	adsrRelease
)

type adsrMode int

const (
	adsrLinear adsrMode = iota
	adsrExponential
)

type adsrDirection int

const (
	adsrIncrease adsrDirection = iota
	adsrDecrease
)

// adsrPhaseParams is the decoded rate/mode/direction for whichever phase
// is currently active, derived from the voice's ADSR1/ADSR2 registers.
type adsrPhaseParams struct {
	step      uint8
	shift     uint8
	direction adsrDirection
	mode      adsrMode
}

// adsrState carries the running envelope volume and phase across ticks.
type adsrState struct {
	phase        adsrPhase
	currentVol   int16
	nextVol      int16
	waitCycles   int
}

// tick advances the ADSR envelope by one SPU cycle. Grounded on the
// documented step table: a phase applies its signed step every
// (1<<shift) cycles (more often for small shifts, with the exponential
// mode scaling the step further once decay sets in), clamping between
// 0 and 0x7FFF. The only automatic transition is Attack->Decay at
// 0x7FFF; Decay does not move on to Sustain, and Release holds volume
// at 0 once it gets there.
func (s *adsrState) tick(params adsrPhaseParams) {
	if s.waitCycles > 0 {
		s.waitCycles--
		return
	}

	step := int32(params.step) + 1
	if params.direction == adsrDecrease {
		step = -step
	}

	cycles := 1 << params.shift
	if params.mode == adsrExponential && params.direction == adsrDecrease {
		// exponential decrease scales the step by the current volume,
		// matching the documented envelope-curve shape
		step = (step * int32(s.currentVol)) >> 15
		if step == 0 {
			step = -1
		}
	}
	if params.mode == adsrExponential && params.direction == adsrIncrease && s.currentVol > 0x6000 {
		cycles *= 4
	}

	next := int32(s.currentVol) + step
	if next > 0x7FFF {
		next = 0x7FFF
	}
	if next < 0 {
		next = 0
	}
	s.currentVol = int16(next)
	s.waitCycles = cycles

	switch s.phase {
	case adsrAttack:
		if s.currentVol >= 0x7FFF {
			s.phase = adsrDecay
		}
	case adsrRelease:
		if s.currentVol <= 0 {
			s.currentVol = 0
		}
	}
}

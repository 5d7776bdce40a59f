package spu

import "github.com/cantrip-labs/psxcore/internal/bit"

// WriteKON key-ons every voice whose bit is set in the 24-bit mask,
// mirroring a single register write fanning out to N independent voices.
func (c *Controller) WriteKON(mask uint32) {
	for i := 0; i < VoiceCount; i++ {
		if bit.IsSet32(mask, uint(i)) {
			c.KeyOn(i)
			c.endx = bit.Reset32(c.endx, uint(i))
		}
	}
}

// WriteKOFF key-offs every voice whose bit is set, starting its release phase.
func (c *Controller) WriteKOFF(mask uint32) {
	for i := 0; i < VoiceCount; i++ {
		if bit.IsSet32(mask, uint(i)) {
			c.KeyOff(i)
		}
	}
}

// ReadENDX returns the sticky loop-end status bitmask.
func (c *Controller) ReadENDX() uint32 { return c.endx }

// WriteVoicePitch sets a voice's ADPCM sample-rate multiplier (14-bit,
// 0x1000 = native rate); pitch modulation from the preceding voice is
// left unmodeled since geometry/noise voices are out of the scanline-
// accurate scope this core targets.
func (c *Controller) WriteVoicePitch(id int, v uint16) { c.voices[id].pitch = v }

// WriteVoiceADSR sets the decay/sustain-rate fields consulted by the
// per-tick envelope step; only the subset of fields this core models
// (rate/shift/direction/mode for the currently active phase) is decoded.
func (c *Controller) WriteVoiceADSR(id int, adsr1, adsr2 uint16) {
	v := &c.voices[id]
	v.adsrParams[0] = adsrPhaseParams{
		step:      uint8(bit.ExtractBits16(adsr1, 3, 0)),
		shift:     uint8(bit.ExtractBits16(adsr1, 8, 4)),
		direction: adsrDirection(bit.ExtractBits16(adsr2, 14, 14)),
		mode:      adsrMode(bit.ExtractBits16(adsr2, 15, 15)),
	}
}

// WriteVoiceRepeatAddress sets RADDR directly, used by the BIOS/game to
// seed a loop point ahead of a loop-start block being decoded.
func (c *Controller) WriteVoiceRepeatAddress(id int, blockAddr uint32) {
	c.voices[id].repeatAddress = blockAddr
}

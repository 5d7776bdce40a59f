package spu

import "github.com/cantrip-labs/psxcore/internal/bus"

// voiceShadow holds the bus-side register halves the controller doesn't
// keep split storage for (VOLL/VOLR, pitch/start address, ADSR1/ADSR2,
// current volume/repeat address), combined and forwarded on each write.
type voiceShadow struct {
	volLeft, volRight   uint16
	pitch, startAddrReg uint16
	adsr1, adsr2        uint16
	currentVol, repeat  uint16
}

// registerShadow backs the handful of SPU registers the controller
// exposes only as write-through actions (KON/KOFF, transfer address/
// control) or not at all (the cosmetic mixer registers this core's voice
// pipeline never consults: reverb, CD/external volume). Every one of
// these mirrors a plain B32Register/B16Register in the reference
// implementation's own resource layer, which never gives most of them
// behavior beyond storage either.
type registerShadow struct {
	kon, koff                   uint32
	reverbOutL, reverbOutR       uint16
	pitchModEnable, noiseEnable  uint16
	reverbEnable                 uint16
	reverbWorkAddr               uint16
	irqAddr                      uint16
	transferCtrl                 uint16
	cdVolL, cdVolR               uint16
	extVolL, extVolR             uint16
	mainVolL, mainVolR           uint16
}

// RegisterWindow adapts the SPU's register block to the bus, following
// the documented hardware offsets relative to the SPU base: 24 voice
// blocks (stride 0x10) at 0x000-0x17F, main volume at 0x180, KON/KOFF at
// 0x188/0x18C, ENDX at 0x19C, IRQ/transfer address at 0x1A4, the transfer
// FIFO and SPUCNT at 0x1A8, transfer control and SPUSTAT at 0x1AC.
type RegisterWindow struct {
	c      *Controller
	voices [VoiceCount]voiceShadow
	shadow registerShadow
}

func NewRegisterWindow(c *Controller) *RegisterWindow {
	return &RegisterWindow{c: c}
}

func (w *RegisterWindow) Name() string { return "spu" }

func (w *RegisterWindow) file() *bus.RegisterFile {
	rf := bus.NewRegisterFile("spu")
	for i := range w.voices {
		id := i
		vs := &w.voices[id]
		base := uint32(id) * 0x10

		rf.At(base+0x00,
			func() uint32 { return uint32(vs.volLeft) | uint32(vs.volRight)<<16 },
			func(v uint32) error {
				vs.volLeft, vs.volRight = uint16(v), uint16(v>>16)
				w.c.SetVolume(id, int16(vs.volLeft), int16(vs.volRight))
				return nil
			})

		rf.At(base+0x04,
			func() uint32 { return uint32(vs.pitch) | uint32(vs.startAddrReg)<<16 },
			func(v uint32) error {
				vs.pitch, vs.startAddrReg = uint16(v), uint16(v>>16)
				w.c.WriteVoicePitch(id, vs.pitch)
				w.c.SetStartAddress(id, uint32(vs.startAddrReg)*8)
				return nil
			})

		rf.At(base+0x08,
			func() uint32 { return uint32(vs.adsr1) | uint32(vs.adsr2)<<16 },
			func(v uint32) error {
				vs.adsr1, vs.adsr2 = uint16(v), uint16(v>>16)
				w.c.WriteVoiceADSR(id, vs.adsr1, vs.adsr2)
				return nil
			})

		rf.At(base+0x0C,
			func() uint32 { return uint32(vs.currentVol) | uint32(vs.repeat)<<16 },
			func(v uint32) error {
				vs.currentVol, vs.repeat = uint16(v), uint16(v>>16)
				w.c.WriteVoiceRepeatAddress(id, uint32(vs.repeat)*8)
				return nil
			})
	}

	s := &w.shadow
	rf.At(0x180,
		func() uint32 { return uint32(s.mainVolL) | uint32(s.mainVolR)<<16 },
		func(v uint32) error {
			s.mainVolL, s.mainVolR = uint16(v), uint16(v>>16)
			w.c.SetMainVolume(int16(s.mainVolL), int16(s.mainVolR))
			return nil
		})
	rf.At(0x184,
		func() uint32 { return uint32(s.reverbOutL) | uint32(s.reverbOutR)<<16 },
		func(v uint32) error { s.reverbOutL, s.reverbOutR = uint16(v), uint16(v>>16); return nil })
	rf.At(0x188,
		func() uint32 { return s.kon },
		func(v uint32) error { s.kon = v; w.c.WriteKON(v); return nil })
	rf.At(0x18C,
		func() uint32 { return s.koff },
		func(v uint32) error { s.koff = v; w.c.WriteKOFF(v); return nil })
	rf.At(0x190,
		func() uint32 { return uint32(s.pitchModEnable) },
		func(v uint32) error { s.pitchModEnable = uint16(v); return nil })
	rf.At(0x194,
		func() uint32 { return uint32(s.noiseEnable) },
		func(v uint32) error { s.noiseEnable = uint16(v); return nil })
	rf.At(0x198,
		func() uint32 { return uint32(s.reverbEnable) },
		func(v uint32) error { s.reverbEnable = uint16(v); return nil })
	rf.At(0x19C,
		func() uint32 { return w.c.ReadENDX() },
		func(uint32) error { return nil }) // ENDX is read-only
	rf.At(0x1A4,
		func() uint32 { return uint32(s.irqAddr) },
		func(v uint32) error {
			s.irqAddr = uint16(v)
			w.c.WriteDataTransferAddr(uint16(v >> 16))
			return nil
		})
	rf.At(0x1A8,
		func() uint32 { return uint32(w.c.ReadControl()) << 16 },
		func(v uint32) error {
			w.c.PushFIFO(uint16(v))
			w.c.WriteControl(v >> 16)
			return nil
		})
	rf.At(0x1AC,
		func() uint32 { return uint32(s.transferCtrl) | w.c.ReadStat()<<16 },
		func(v uint32) error {
			s.transferCtrl = uint16(v)
			w.c.WriteDataTransferCtrl(uint16(v))
			return nil
		})
	rf.At(0x1B0,
		func() uint32 { return uint32(s.cdVolL) | uint32(s.cdVolR)<<16 },
		func(v uint32) error { s.cdVolL, s.cdVolR = uint16(v), uint16(v>>16); return nil })
	rf.At(0x1B4,
		func() uint32 { return uint32(s.extVolL) | uint32(s.extVolR)<<16 },
		func(v uint32) error { s.extVolL, s.extVolR = uint16(v), uint16(v>>16); return nil })
	rf.At(0x1B8,
		func() uint32 { return uint32(s.mainVolL) | uint32(s.mainVolR)<<16 },
		func(uint32) error { return nil }) // current main volume readback is not tracked separately

	return rf
}

func (w *RegisterWindow) ReadU8(offset uint32) (uint8, error)  { return w.file().ReadU8(offset) }
func (w *RegisterWindow) WriteU8(offset uint32, v uint8) error { return w.file().WriteU8(offset, v) }
func (w *RegisterWindow) ReadU16(offset uint32) (uint16, error) {
	return w.file().ReadU16(offset)
}
func (w *RegisterWindow) WriteU16(offset uint32, v uint16) error {
	return w.file().WriteU16(offset, v)
}
func (w *RegisterWindow) ReadU32(offset uint32) (uint32, error) {
	return w.file().ReadU32(offset)
}
func (w *RegisterWindow) WriteU32(offset uint32, v uint32) error {
	return w.file().WriteU32(offset, v)
}

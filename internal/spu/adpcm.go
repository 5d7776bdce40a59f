package spu

import "github.com/cantrip-labs/psxcore/internal/bit"

// adpcmPosFilter/adpcmNegFilter are the 5 documented prediction filter
// coefficient pairs, indexed by the 4-bit filter field in a block header.
var adpcmPosFilter = [5]int32{0, 60, 115, 98, 122}
var adpcmNegFilter = [5]int32{0, 0, -52, -55, -60}

// adpcmHeader holds the per-block shift/filter/loop-flag fields decoded
// from a block's first two bytes.
type adpcmHeader struct {
	shift, filter                  uint8
	loopEnd, loopRepeat, loopStart bool
}

func decodeADPCMHeader(b0, b1 uint8) adpcmHeader {
	return adpcmHeader{
		shift:      uint8(bit.ExtractBits32(uint32(b0), 3, 0)),
		filter:     uint8(bit.ExtractBits32(uint32(b0), 6, 4)),
		loopEnd:    bit.IsSet(b1, 0),
		loopRepeat: bit.IsSet(b1, 1),
		loopStart:  bit.IsSet(b1, 2),
	}
}

// adpcmState carries the two-sample prediction history and the decoded
// 28-sample scratch buffer across block boundaries for a single voice.
type adpcmState struct {
	oldSample, olderSample int16
	sampleBuffer           [28]int16
}

// decodeBlock decodes a 16-byte ADPCM block (2-byte header + 14 packed
// bytes, 2 nibble samples each) into 28 PCM samples, updating the
// prediction history in place. Grounded on the decode_frame formula:
// shifted = (nibble<<12)>>shift, then += (old*pos>>6)+(older*neg>>6),
// clamped to int16.
func (s *adpcmState) decodeBlock(block [16]byte) adpcmHeader {
	hdr := decodeADPCMHeader(block[0], block[1])
	pos := adpcmPosFilter[hdr.filter&0x7%5]
	neg := adpcmNegFilter[hdr.filter&0x7%5]

	for i := 0; i < 14; i++ {
		data := block[2+i]
		nibbles := [2]int32{int32(data & 0xF), int32(data >> 4)}

		for n := 0; n < 2; n++ {
			shifted := (nibbles[n] << 12) >> hdr.shift
			shifted += (int32(s.oldSample)*pos)>>6 + (int32(s.olderSample)*neg)>>6
			sample := bit.Clip16(shifted)

			s.sampleBuffer[i*2+n] = sample
			s.olderSample = s.oldSample
			s.oldSample = sample
		}
	}
	return hdr
}

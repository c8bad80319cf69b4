package adts

import (
	"errors"
	"fmt"
)

const (
	HeaderSize          = 7
	HeaderSizeWithCRC   = 9
	SamplesPerRawBlock  = 1024
	maxSampleRateIndex  = 12
	syncWordHigh        = 0xFF
	syncWordLowMask     = 0xF0
	protectionAbsentBit = 0x01
)

var (
	ErrNoSyncWord        = errors.New("no ADTS sync word")
	ErrInvalidSampleRate = errors.New("invalid ADTS sampling frequency index")
	ErrInvalidFrameSize  = errors.New("invalid ADTS frame length")
)

var sampleRates = [maxSampleRateIndex + 1]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

type Header struct {
	MPEG2            bool
	ProtectionAbsent bool
	Profile          uint8
	SampleRate       int
	Channels         uint8
	FrameLength      int
	RawDataBlocks    int
}

func (h Header) Size() int {
	if h.ProtectionAbsent {
		return HeaderSize
	}
	return HeaderSizeWithCRC
}

func (h Header) Samples() int {
	return h.RawDataBlocks * SamplesPerRawBlock
}

// ParseHeader decodes the fixed and variable parts of an ADTS header from
// the first HeaderSize bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: only %d bytes", ErrNoSyncWord, len(b))
	}
	if b[0] != syncWordHigh || b[1]&syncWordLowMask != syncWordLowMask {
		return Header{}, ErrNoSyncWord
	}

	sampleRateIndex := (b[2] >> 2) & 0x0F
	if sampleRateIndex > maxSampleRateIndex {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRateIndex)
	}

	h := Header{
		MPEG2:            b[1]&0x08 != 0,
		ProtectionAbsent: b[1]&protectionAbsentBit != 0,
		Profile:          b[2] >> 6,
		SampleRate:       sampleRates[sampleRateIndex],
		Channels:         (b[2]&0x01)<<2 | b[3]>>6,
		FrameLength:      int(b[3]&0x03)<<11 | int(b[4])<<3 | int(b[5])>>5,
		RawDataBlocks:    int(b[6]&0x03) + 1,
	}
	if h.FrameLength < h.Size() {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidFrameSize, h.FrameLength)
	}
	return h, nil
}

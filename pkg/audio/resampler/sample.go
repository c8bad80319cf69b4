package resampler

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

const (
	scale8  = 1 << 7
	scale16 = 1 << 15
	scale24 = 1 << 23
	scale32 = 1 << 31
	scale64 = 1 << 63
)

// DecodeSample returns the sample at the beginning of p in [-1, 1].
func DecodeSample(f types.PCMFormat, p []byte) float64 {
	switch f {
	case types.PCMFormatU8:
		return (float64(p[0]) - scale8) / scale8
	case types.PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / scale16
	case types.PCMFormatS16BE:
		return float64(int16(binary.BigEndian.Uint16(p))) / scale16
	case types.PCMFormatS24LE:
		return float64(signExtend24(uint32(p[0])|uint32(p[1])<<8|uint32(p[2])<<16)) / scale24
	case types.PCMFormatS24BE:
		return float64(signExtend24(uint32(p[2])|uint32(p[1])<<8|uint32(p[0])<<16)) / scale24
	case types.PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / scale32
	case types.PCMFormatS32BE:
		return float64(int32(binary.BigEndian.Uint32(p))) / scale32
	case types.PCMFormatS64LE:
		return float64(int64(binary.LittleEndian.Uint64(p))) / scale64
	case types.PCMFormatS64BE:
		return float64(int64(binary.BigEndian.Uint64(p))) / scale64
	case types.PCMFormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case types.PCMFormatFloat32BE:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
	case types.PCMFormatFloat64LE:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case types.PCMFormatFloat64BE:
		return math.Float64frombits(binary.BigEndian.Uint64(p))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

func signExtend24(v uint32) int32 {
	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v)
}

// quantize maps v onto an integer range, clipping instead of wrapping
// around on full-scale input.
func quantize(v float64, scale float64) int64 {
	q := math.Round(v * scale)
	switch {
	case math.IsNaN(q):
		return 0
	case q >= scale:
		if scale >= scale64 {
			return math.MaxInt64
		}
		return int64(scale) - 1
	case q < -scale:
		return int64(-scale)
	default:
		return int64(q)
	}
}

func EncodeSample(f types.PCMFormat, p []byte, v float64) {
	switch f {
	case types.PCMFormatU8:
		p[0] = byte(quantize(v, scale8) + scale8)
	case types.PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(quantize(v, scale16)))
	case types.PCMFormatS16BE:
		binary.BigEndian.PutUint16(p, uint16(quantize(v, scale16)))
	case types.PCMFormatS24LE:
		q := quantize(v, scale24)
		p[0], p[1], p[2] = byte(q), byte(q>>8), byte(q>>16)
	case types.PCMFormatS24BE:
		q := quantize(v, scale24)
		p[0], p[1], p[2] = byte(q>>16), byte(q>>8), byte(q)
	case types.PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(quantize(v, scale32)))
	case types.PCMFormatS32BE:
		binary.BigEndian.PutUint32(p, uint32(quantize(v, scale32)))
	case types.PCMFormatS64LE:
		binary.LittleEndian.PutUint64(p, uint64(quantize(v, scale64)))
	case types.PCMFormatS64BE:
		binary.BigEndian.PutUint64(p, uint64(quantize(v, scale64)))
	case types.PCMFormatFloat32LE:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case types.PCMFormatFloat32BE:
		binary.BigEndian.PutUint32(p, math.Float32bits(float32(v)))
	case types.PCMFormatFloat64LE:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	case types.PCMFormatFloat64BE:
		binary.BigEndian.PutUint64(p, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

// Peak returns the largest absolute sample value in p, clipped to 1.
// A trailing partial sample is ignored.
func Peak(f types.PCMFormat, p []byte) float64 {
	size := int(f.Size())
	if size == 0 {
		return 0
	}
	var peak float64
	for idx := 0; idx+size <= len(p); idx += size {
		v := math.Abs(DecodeSample(f, p[idx:]))
		if v > peak {
			peak = v
		}
	}
	return math.Min(peak, 1)
}

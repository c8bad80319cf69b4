package resampler

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

const (
	distanceStep = 10000
)

type Format struct {
	Channels   types.Channel
	SampleRate types.SampleRate
	PCMFormat  types.PCMFormat
}

func (f Format) FrameSize() uint {
	return f.PCMFormat.Size() * uint(f.Channels)
}

// Resampler is an io.Reader converting PCM from one Format to another:
// sample format, sample rate (nearest neighbour) and mono<->multichannel.
type Resampler struct {
	locker      sync.Mutex
	inReader    io.Reader
	inFormat    Format
	outFormat   Format
	inDistance  uint64
	outDistance uint64
	buffer      []byte
	pending     []byte
	truncated   error

	inSampleSize    uint
	outSampleSize   uint
	inNumAvg        uint
	outNumRepeat    uint
	outDistanceStep uint64
}

var _ io.Reader = (*Resampler)(nil)

func NewResampler(
	inFormat Format,
	inReader io.Reader,
	outFormat Format,
) (*Resampler, error) {
	r := &Resampler{
		inReader:  inReader,
		inFormat:  inFormat,
		outFormat: outFormat,
	}
	if err := r.init(); err != nil {
		return nil, fmt.Errorf("unable to initialize a resampler from %#+v to %#+v: %w", inFormat, outFormat, err)
	}
	return r, nil
}

func (r *Resampler) init() error {
	r.inSampleSize = r.inFormat.PCMFormat.Size()
	r.outSampleSize = r.outFormat.PCMFormat.Size()
	if r.inSampleSize == 0 || r.outSampleSize == 0 {
		return fmt.Errorf("undefined PCM format")
	}
	if r.inFormat.SampleRate == 0 || r.outFormat.SampleRate == 0 {
		return fmt.Errorf("undefined sample rate")
	}

	r.inNumAvg = 1
	r.outNumRepeat = 1
	if r.inFormat.Channels != r.outFormat.Channels {
		switch {
		case r.inFormat.Channels == 1:
			r.outNumRepeat = uint(r.outFormat.Channels)
		case r.outFormat.Channels == 1:
			r.inNumAvg = uint(r.inFormat.Channels)
		default:
			return fmt.Errorf("do not know how to convert %d channels to %d", r.inFormat.Channels, r.outFormat.Channels)
		}
	}

	r.outDistanceStep = uint64(distanceStep) * uint64(r.inFormat.SampleRate) / uint64(r.outFormat.SampleRate)
	return nil
}

func (r *Resampler) inFrameSize() uint64 {
	return uint64(r.inSampleSize) * uint64(r.inNumAvg)
}

func (r *Resampler) outFrameSize() uint64 {
	return uint64(r.outSampleSize) * uint64(r.outNumRepeat)
}

// Read converts as much input as fits into p. Input that ends in the
// middle of a frame is kept until the rest arrives.
func (r *Resampler) Read(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.truncated != nil {
		return 0, r.truncated
	}

	maxOutFrames := uint64(len(p)) / r.outFrameSize()
	if maxOutFrames == 0 {
		return 0, nil
	}

	inFramesWanted := maxOutFrames * uint64(r.inFormat.SampleRate) / uint64(r.outFormat.SampleRate)
	if inFramesWanted == 0 {
		inFramesWanted = 1
	}
	bytesWanted := int(inFramesWanted * r.inFrameSize())
	if cap(r.buffer) < bytesWanted {
		r.buffer = make([]byte, bytesWanted)
	}
	r.buffer = r.buffer[:bytesWanted]

	carried := copy(r.buffer, r.pending)
	r.pending = r.pending[:0]
	n, err := r.inReader.Read(r.buffer[carried:])
	if n < 0 {
		return 0, fmt.Errorf("the source returned a negative count: %d", n)
	}
	available := carried + n

	inFrames := uint64(available) / r.inFrameSize()
	if tail := r.buffer[inFrames*r.inFrameSize() : available]; len(tail) > 0 {
		if errors.Is(err, io.EOF) {
			r.truncated = fmt.Errorf("the source ended in the middle of a frame (%d trailing bytes): %w", len(tail), io.ErrUnexpectedEOF)
			err = nil
		} else {
			r.pending = append(r.pending, tail...)
		}
	}

	outFrames := r.convert(p, inFrames, maxOutFrames)
	if outFrames == 0 && r.truncated != nil {
		return 0, r.truncated
	}
	return int(outFrames * r.outFrameSize()), err
}

func (r *Resampler) convert(p []byte, inFrames, maxOutFrames uint64) uint64 {
	var srcIdx, dstIdx uint64
	for srcIdx < inFrames && dstIdx < maxOutFrames {
		for r.inDistance < r.outDistance && srcIdx < inFrames {
			srcIdx++
			r.inDistance += distanceStep
		}
		if srcIdx >= inFrames {
			break
		}

		offset := srcIdx * r.inFrameSize()
		var sum float64
		for ch := uint64(0); ch < uint64(r.inNumAvg); ch++ {
			sum += DecodeSample(r.inFormat.PCMFormat, r.buffer[offset+ch*uint64(r.inSampleSize):])
		}
		v := sum / float64(r.inNumAvg)

		for dstIdx < maxOutFrames && r.outDistance <= r.inDistance {
			for rep := uint64(0); rep < uint64(r.outNumRepeat); rep++ {
				EncodeSample(r.outFormat.PCMFormat, p[(dstIdx*uint64(r.outNumRepeat)+rep)*uint64(r.outSampleSize):], v)
			}
			dstIdx++
			r.outDistance += r.outDistanceStep
		}

		srcIdx++
		r.inDistance += distanceStep
	}
	return dstIdx
}

package adts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

var ErrNoFrames = errors.New("no complete ADTS frames")

type Stats struct {
	Frames     int
	Samples    int64
	SampleRate int
	Bytes      int64
}

func (s Stats) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.Samples) * time.Second / time.Duration(s.SampleRate)
}

// Scan walks the frames of an ADTS stream. A truncated trailing frame is
// not counted and is not an error.
func Scan(r io.Reader) (Stats, error) {
	br := bufio.NewReader(r)
	var (
		stats  Stats
		header [HeaderSize]byte
	)
	for {
		_, err := io.ReadFull(br, header[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return stats, fmt.Errorf("unable to read frame #%d: %w", stats.Frames, err)
		}

		h, err := ParseHeader(header[:])
		if err != nil {
			return stats, fmt.Errorf("frame #%d at offset %d: %w", stats.Frames, stats.Bytes, err)
		}
		if stats.SampleRate == 0 {
			stats.SampleRate = h.SampleRate
		}

		skipped, err := br.Discard(h.FrameLength - HeaderSize)
		if err != nil {
			if errors.Is(err, io.EOF) && skipped < h.FrameLength-HeaderSize {
				break
			}
			return stats, fmt.Errorf("unable to skip frame #%d: %w", stats.Frames, err)
		}

		stats.Frames++
		stats.Samples += int64(h.Samples())
		stats.Bytes += int64(h.FrameLength)
	}

	if stats.Frames == 0 {
		return stats, ErrNoFrames
	}
	return stats, nil
}

func ScanFile(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()
	return Scan(f)
}

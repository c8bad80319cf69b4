package desktop

import (
	"io"
	"math"
	"sync"

	"github.com/xaionaro-go/voicerecorder/pkg/audio"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/resampler"
)

// amplitudeWriter tracks the peak since the last TakeMaxAmplitude and
// swallows the input while paused.
type amplitudeWriter struct {
	locker sync.Mutex
	next   io.Writer
	format audio.PCMFormat
	peak   float64
	paused bool
}

var _ io.Writer = (*amplitudeWriter)(nil)

func newAmplitudeWriter(next io.Writer, format audio.PCMFormat) *amplitudeWriter {
	return &amplitudeWriter{
		next:   next,
		format: format,
	}
}

func (w *amplitudeWriter) Write(p []byte) (int, error) {
	w.locker.Lock()
	if w.paused {
		w.locker.Unlock()
		return len(p), nil
	}
	if peak := resampler.Peak(w.format, p); peak > w.peak {
		w.peak = peak
	}
	w.locker.Unlock()
	return w.next.Write(p)
}

func (w *amplitudeWriter) SetPaused(paused bool) {
	w.locker.Lock()
	defer w.locker.Unlock()
	w.paused = paused
	w.peak = 0
}

// TakeMaxAmplitude returns the peak as a 16-bit magnitude and resets it.
func (w *amplitudeWriter) TakeMaxAmplitude() int {
	w.locker.Lock()
	defer w.locker.Unlock()
	peak := w.peak
	w.peak = 0
	return int(math.Round(peak * math.MaxInt16))
}

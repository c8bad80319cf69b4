package volume

import (
	"math"

	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

const (
	KneeThreshold   = 0.15
	KneeOutput      = 0.8
	SmoothingFactor = 0.5

	// MaxAmplitude is the largest value a 16-bit capture can report.
	MaxAmplitude = math.MaxInt16
)

// KneeRemap makes quiet sounds more visible: a square-root curve maps
// [0, KneeThreshold] onto [0, KneeOutput], and a linear ramp maps the
// rest onto [KneeOutput, 1].
func KneeRemap(rawLinear float64) float64 {
	rawLinear = clamp01(rawLinear)
	if rawLinear <= KneeThreshold {
		return math.Sqrt(rawLinear/KneeThreshold) * KneeOutput
	}
	excess := (rawLinear - KneeThreshold) / (1 - KneeThreshold)
	return KneeOutput + excess*(1-KneeOutput)
}

type Smoother struct {
	Value float64
}

func (s *Smoother) Next(target float64) float64 {
	s.Value = SmoothingFactor*clamp01(target) + (1-SmoothingFactor)*s.Value
	return s.Value
}

func (s *Smoother) Reset() {
	s.Value = 0
}

// Meter turns raw hardware amplitudes into smoothed visual levels.
type Meter struct {
	Smoother
}

func (m *Meter) Sample(amplitude int) types.VolumeSample {
	raw := clamp01(float64(amplitude) / MaxAmplitude)
	return types.VolumeSample{
		RawLinearLevel: raw,
		VisualLevel:    m.Next(KneeRemap(raw)),
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

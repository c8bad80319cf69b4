package audio

import (
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

type (
	SampleRate   = types.SampleRate
	Channel      = types.Channel
	PCMFormat    = types.PCMFormat
	RecorderPCM  = types.RecorderPCM
	Stream       = types.Stream
	RecordStream = types.RecordStream
)

const (
	PCMFormatS16LE     = types.PCMFormatS16LE
	PCMFormatFloat32LE = types.PCMFormatFloat32LE
)

package pulseaudio

import (
	"github.com/xaionaro-go/voicerecorder/pkg/audio/registry"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

const (
	Priority = 100
)

func init() {
	registry.RegisterRecorderFactory(Priority, RecorderPCMPulseFactory{})
}

type RecorderPCMPulseFactory struct{}

func (RecorderPCMPulseFactory) NewRecorderPCM() (types.RecorderPCM, error) {
	return NewRecorderPCM()
}

package types

import (
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

type AudioSource int

const (
	AudioSourceMic = AudioSource(iota)
)

type EncodingProfile struct {
	Source     AudioSource
	Codec      string
	Container  string
	BitRate    uint
	SampleRate types.SampleRate
	Channels   types.Channel
	MIMEType   string
	FileExt    string
}

const MIMETypeAAC = "audio/aac"

// DefaultEncodingProfile is the only profile recordings are made with.
var DefaultEncodingProfile = EncodingProfile{
	Source:     AudioSourceMic,
	Codec:      "aac",
	Container:  "adts",
	BitRate:    96000,
	SampleRate: 44100,
	Channels:   1,
	MIMEType:   MIMETypeAAC,
	FileExt:    ".aac",
}

package mediarecorder

type Capabilities interface {
	SupportsPause() bool
	SupportsFocusRequest() bool
}

type StaticCapabilities struct {
	Pause        bool
	FocusRequest bool
}

var _ Capabilities = StaticCapabilities{}

func (c StaticCapabilities) SupportsPause() bool {
	return c.Pause
}

func (c StaticCapabilities) SupportsFocusRequest() bool {
	return c.FocusRequest
}

const (
	// MinLevelPause is the first platform level with pausable capture.
	MinLevelPause = 24
	// MinLevelFocusRequest is the first platform level with structured focus requests.
	MinLevelFocusRequest = 26
)

// LevelCapabilities derives the capabilities from a numeric platform level.
type LevelCapabilities func() int

var _ Capabilities = LevelCapabilities(nil)

func (fn LevelCapabilities) SupportsPause() bool {
	return fn() >= MinLevelPause
}

func (fn LevelCapabilities) SupportsFocusRequest() bool {
	return fn() >= MinLevelFocusRequest
}

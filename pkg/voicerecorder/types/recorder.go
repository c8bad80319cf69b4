package types

import (
	"context"
)

type Callbacks struct {
	OnInterruptionBegan func()
	OnInterruptionEnded func()
	OnVolumeChanged     func(volume float64)
}

// Recorder is a single hardware capture session. A recorder whose status
// went back to RecordingStatusNone is dead and must be discarded.
type Recorder interface {
	SetCallbacks(Callbacks)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) (bool, error)
	Resume(ctx context.Context) (bool, error)
	Status() RecordingStatus
	Options() RecordOptions
	OutputFile() string
	DeleteOutputFile() error
}

type Platform interface {
	CanRecord(ctx context.Context) bool
	IsMicrophoneOccupied(ctx context.Context) bool
	CreateRecorder(ctx context.Context, opts RecordOptions) (Recorder, error)

	// ReadAsPayload returns false if the file could not be read.
	ReadAsPayload(ctx context.Context, path string) (string, bool)

	// DurationMs returns a negative value if the duration could not be measured.
	DurationMs(ctx context.Context, path string) int

	ToReferenceURI(path string) string
}

type PermissionChecker interface {
	HasAudioPermission(ctx context.Context) bool
}

type PermissionCheckerFunc func(ctx context.Context) bool

func (fn PermissionCheckerFunc) HasAudioPermission(ctx context.Context) bool {
	return fn(ctx)
}

// PermissionRequester asks the user for the microphone permission and
// returns whether it was granted.
type PermissionRequester interface {
	RequestAudioPermission(ctx context.Context) (bool, error)
}

package types

import (
	"fmt"
)

type RecordingStatus int

const (
	RecordingStatusNone = RecordingStatus(iota)
	RecordingStatusRecording
	RecordingStatusPaused
	RecordingStatusInterrupted
)

func (s RecordingStatus) String() string {
	switch s {
	case RecordingStatusNone:
		return "NONE"
	case RecordingStatusRecording:
		return "RECORDING"
	case RecordingStatusPaused:
		return "PAUSED"
	case RecordingStatusInterrupted:
		return "INTERRUPTED"
	default:
		return fmt.Sprintf("UNKNOWN_%d", int(s))
	}
}

// IsActive returns true if a hardware session is running or suspended.
func (s RecordingStatus) IsActive() bool {
	switch s {
	case RecordingStatusRecording, RecordingStatusPaused, RecordingStatusInterrupted:
		return true
	default:
		return false
	}
}

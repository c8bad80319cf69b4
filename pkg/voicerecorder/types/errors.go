package types

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCodeMissingPermission             = ErrorCode("MISSING_PERMISSION")
	ErrorCodeAlreadyRecording              = ErrorCode("ALREADY_RECORDING")
	ErrorCodeMicrophoneBeingUsed           = ErrorCode("MICROPHONE_BEING_USED")
	ErrorCodeDeviceCannotVoiceRecord       = ErrorCode("DEVICE_CANNOT_VOICE_RECORD")
	ErrorCodeFailedToRecord                = ErrorCode("FAILED_TO_RECORD")
	ErrorCodeEmptyRecording                = ErrorCode("EMPTY_RECORDING")
	ErrorCodeRecordingHasNotStarted        = ErrorCode("RECORDING_HAS_NOT_STARTED")
	ErrorCodeFailedToFetchRecording        = ErrorCode("FAILED_TO_FETCH_RECORDING")
	ErrorCodeFailedToMergeRecording        = ErrorCode("FAILED_TO_MERGE_RECORDING")
	ErrorCodeNotSupportedOSVersion         = ErrorCode("NOT_SUPPORTED_OS_VERSION")
	ErrorCodeCouldNotQueryPermissionStatus = ErrorCode("COULD_NOT_QUERY_PERMISSION_STATUS")
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error is the only error kind returned to callers of the recording service.
// Err is diagnostic context and is not part of the stable contract.
type Error struct {
	Code ErrorCode
	Err  error
}

var _ error = (*Error)(nil)

func NewError(code ErrorCode, err error) *Error {
	return &Error{
		Code: code,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the canonical code from an error chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Code, true
}

// ErrNotSupportedOSVersion is returned by a Recorder that cannot pause or
// resume on the current platform.
var ErrNotSupportedOSVersion = errors.New("pause and resume are not supported on this OS version")

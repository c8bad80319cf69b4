package mediarecorder

import (
	"context"
	"errors"

	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

// ErrAlreadyStopped may be returned by Device.Stop if the capture was
// already stopped; it is not a failure of the recording.
var ErrAlreadyStopped = errors.New("the capture is already stopped")

// Device is a hardware capture session producing an encoded file.
type Device interface {
	Configure(ctx context.Context, profile types.EncodingProfile, outputPath string) error
	Prepare(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Release(ctx context.Context) error

	// MaxAmplitude returns the peak absolute 16-bit sample value observed
	// since the previous call.
	MaxAmplitude() int
}

type DeviceFactory func(ctx context.Context) (Device, error)

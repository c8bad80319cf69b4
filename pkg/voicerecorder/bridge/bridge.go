package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/response"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/service"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

type Service interface {
	CanRecord(ctx context.Context) bool
	HasPermission(ctx context.Context) bool
	RequestPermission(ctx context.Context) (bool, error)
	StartRecording(ctx context.Context, opts types.RecordOptions, callbacks types.Callbacks) error
	StopRecording(ctx context.Context) (types.RecordData, error)
	PauseRecording(ctx context.Context) (bool, error)
	ResumeRecording(ctx context.Context) (bool, error)
	CurrentStatus() types.RecordingStatus
}

var _ Service = (*service.Service)(nil)

// Result is either a payload or an error pair, never both.
type Result struct {
	Payload any                 `json:"payload,omitempty"`
	Error   *response.ErrorPair `json:"error,omitempty"`
}

func ok(payload any) Result {
	return Result{Payload: payload}
}

func fail(err error) Result {
	pair := response.ErrorPairOf(err)
	return Result{Error: &pair}
}

type StartOptions struct {
	Directory      string `json:"directory,omitempty"`
	SubDirectory   string `json:"subDirectory,omitempty"`
	VolumeMetering bool   `json:"volumeMetering,omitempty"`
}

func (opts StartOptions) RecordOptions() types.RecordOptions {
	return types.RecordOptions{
		Directory:      types.ParseDirectory(opts.Directory),
		SubDirectory:   opts.SubDirectory,
		VolumeMetering: opts.VolumeMetering,
	}
}

// Bridge exposes the recording service to a runtime.
type Bridge struct {
	service        Service
	format         response.Format
	notifierLocker sync.Mutex
	notifier       Notifier
}

var noNotifier = NotifierFunc(func(string, any) {})

func New(
	svc Service,
	format response.Format,
	notifier Notifier,
) *Bridge {
	if notifier == nil {
		notifier = noNotifier
	}
	return &Bridge{
		service:  svc,
		format:   format,
		notifier: notifier,
	}
}

func (b *Bridge) notify(event string, data any) {
	b.notifierLocker.Lock()
	notifier := b.notifier
	b.notifierLocker.Unlock()
	notifier.Notify(event, data)
}

// RemoveAllListeners drops the notifier; later events are discarded.
func (b *Bridge) RemoveAllListeners(context.Context) Result {
	b.notifierLocker.Lock()
	defer b.notifierLocker.Unlock()
	b.notifier = noNotifier
	return ok(response.Success())
}

func (b *Bridge) CanDeviceVoiceRecord(ctx context.Context) Result {
	return ok(response.FromBool(b.service.CanRecord(ctx)))
}

func (b *Bridge) HasAudioRecordingPermission(ctx context.Context) Result {
	return ok(response.FromBool(b.service.HasPermission(ctx)))
}

func (b *Bridge) RequestAudioRecordingPermission(ctx context.Context) Result {
	granted, err := b.service.RequestPermission(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(response.FromBool(granted))
}

func (b *Bridge) StartRecording(ctx context.Context, opts StartOptions) Result {
	err := b.service.StartRecording(ctx, opts.RecordOptions(), types.Callbacks{
		OnInterruptionBegan: func() {
			b.notify(EventVoiceRecordingInterrupted, struct{}{})
		},
		OnInterruptionEnded: func() {
			b.notify(EventVoiceRecordingInterruptionEnded, struct{}{})
		},
		OnVolumeChanged: func(volume float64) {
			b.notify(EventVolumeChanged, VolumeChanged{Volume: volume})
		},
	})
	if err != nil {
		return fail(err)
	}
	return ok(response.Success())
}

func (b *Bridge) StopRecording(ctx context.Context) Result {
	data, err := b.service.StopRecording(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(response.Data(response.RecordDataPayload(b.format, data)))
}

func (b *Bridge) PauseRecording(ctx context.Context) Result {
	paused, err := b.service.PauseRecording(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(response.FromBool(paused))
}

func (b *Bridge) ResumeRecording(ctx context.Context) Result {
	resumed, err := b.service.ResumeRecording(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(response.FromBool(resumed))
}

func (b *Bridge) GetCurrentStatus(context.Context) Result {
	return ok(response.Status(b.service.CurrentStatus()))
}

// Call dispatches a method by its runtime name; args may be empty.
func (b *Bridge) Call(
	ctx context.Context,
	method string,
	args json.RawMessage,
) (_ret Result, _err error) {
	logger.Tracef(ctx, "Call(ctx, '%s', '%s')", method, args)
	defer func() { logger.Tracef(ctx, "/Call: %#+v %v", _ret, _err) }()

	switch method {
	case MethodCanDeviceVoiceRecord:
		return b.CanDeviceVoiceRecord(ctx), nil
	case MethodHasAudioRecordingPermission:
		return b.HasAudioRecordingPermission(ctx), nil
	case MethodRequestAudioRecordingPermission:
		return b.RequestAudioRecordingPermission(ctx), nil
	case MethodStartRecording:
		var opts StartOptions
		if len(args) > 0 {
			if err := json.Unmarshal(args, &opts); err != nil {
				return Result{}, fmt.Errorf("unable to parse the options of '%s': %w", method, err)
			}
		}
		return b.StartRecording(ctx, opts), nil
	case MethodStopRecording:
		return b.StopRecording(ctx), nil
	case MethodPauseRecording:
		return b.PauseRecording(ctx), nil
	case MethodResumeRecording:
		return b.ResumeRecording(ctx), nil
	case MethodGetCurrentStatus:
		return b.GetCurrentStatus(ctx), nil
	case MethodRemoveAllListeners:
		return b.RemoveAllListeners(ctx), nil
	default:
		return Result{}, fmt.Errorf("unknown method '%s'", method)
	}
}

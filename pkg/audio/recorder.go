package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/registry"
)

type Recorder struct {
	RecorderPCM
}

func NewRecorder(recorderPCM RecorderPCM) *Recorder {
	return &Recorder{
		RecorderPCM: recorderPCM,
	}
}

var (
	lastSuccessfulRecorderFactory       registry.RecorderPCMFactory
	lastSuccessfulRecorderFactoryLocker sync.Mutex
)

func getLastSuccessfulRecorderFactory() registry.RecorderPCMFactory {
	lastSuccessfulRecorderFactoryLocker.Lock()
	defer lastSuccessfulRecorderFactoryLocker.Unlock()
	return lastSuccessfulRecorderFactory
}

func setLastSuccessfulRecorderFactory(factory registry.RecorderPCMFactory) {
	lastSuccessfulRecorderFactoryLocker.Lock()
	defer lastSuccessfulRecorderFactoryLocker.Unlock()
	lastSuccessfulRecorderFactory = factory
}

// NewRecorderAuto returns a recorder backed by the highest-priority backend
// that could be initialized and pinged, or a dummy recorder if none could.
func NewRecorderAuto(
	ctx context.Context,
) *Recorder {
	recorder, err := NewRecorderAutoStrict(ctx)
	if err != nil {
		logger.Infof(ctx, "was unable to initialize any PCM recorder: %v", err)
		return &Recorder{
			RecorderPCM: RecorderPCMDummy{},
		}
	}
	return recorder
}

// NewRecorderAutoStrict is the same as NewRecorderAuto, but returns
// an error instead of falling back to a dummy recorder.
func NewRecorderAutoStrict(
	ctx context.Context,
) (*Recorder, error) {
	factory := getLastSuccessfulRecorderFactory()
	if factory != nil {
		recorder, err := factory.NewRecorderPCM()
		if err == nil {
			if err := recorder.Ping(ctx); err == nil {
				return NewRecorder(recorder), nil
			}
			_ = recorder.Close()
		}
	}

	var mErr *multierror.Error
	for _, factory := range registry.RecorderFactories() {
		recorder, err := factory.NewRecorderPCM()
		logger.Debugf(ctx, "initializing recorder %T result is %v", recorder, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize %T: %w", factory, err))
			continue
		}

		err = recorder.Ping(ctx)
		logger.Debugf(ctx, "pinging PCM recorder %T result is %v", recorder, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to ping %T: %w", recorder, err))
			_ = recorder.Close()
			continue
		}

		setLastSuccessfulRecorderFactory(factory)
		return NewRecorder(recorder), nil
	}

	if mErr == nil {
		return nil, fmt.Errorf("no PCM recorder backends are registered")
	}
	return nil, mErr.ErrorOrNil()
}

func (a *Recorder) IsDummy() bool {
	_, ok := a.RecorderPCM.(RecorderPCMDummy)
	return ok
}

func (a *Recorder) RecordPCM(
	ctx context.Context,
	sampleRate SampleRate,
	channels Channel,
	pcmFormat PCMFormat,
	pcmWriter io.Writer,
) (RecordStream, error) {
	return a.RecorderPCM.RecordPCM(
		ctx,
		sampleRate,
		channels,
		pcmFormat,
		pcmWriter,
	)
}

package mediarecorder

import (
	"context"
	"errors"

	"github.com/xaionaro-go/voicerecorder/pkg/audiofocus"
)

type FocusManager interface {
	RequestAudioFocus(ctx context.Context, request *audiofocus.Request) error
	AbandonAudioFocusRequest(ctx context.Context, request *audiofocus.Request) error
	RequestAudioFocusLegacy(ctx context.Context, listener audiofocus.Listener, stream audiofocus.StreamType, gain audiofocus.Change) error
	AbandonAudioFocus(ctx context.Context, listener audiofocus.Listener) error
}

var _ FocusManager = (*audiofocus.Arbiter)(nil)

type focusStrategy interface {
	acquire(ctx context.Context) error
	release(ctx context.Context) error
}

func newFocusStrategy(
	manager FocusManager,
	caps Capabilities,
	listener audiofocus.Listener,
) focusStrategy {
	switch {
	case manager == nil:
		return noFocusStrategy{}
	case caps.SupportsFocusRequest():
		return &requestFocusStrategy{
			manager:  manager,
			listener: listener,
		}
	default:
		return &legacyFocusStrategy{
			manager:  manager,
			listener: listener,
		}
	}
}

type noFocusStrategy struct{}

func (noFocusStrategy) acquire(context.Context) error { return nil }
func (noFocusStrategy) release(context.Context) error { return nil }

type requestFocusStrategy struct {
	manager  FocusManager
	listener audiofocus.Listener
	request  *audiofocus.Request
}

// acquire reuses the request, so re-acquiring never preempts ourselves.
func (s *requestFocusStrategy) acquire(ctx context.Context) error {
	if s.request == nil {
		s.request = audiofocus.NewRequest(
			audiofocus.ChangeGain,
			audiofocus.Attributes{
				Usage:       audiofocus.UsageMedia,
				ContentType: audiofocus.ContentTypeSpeech,
			},
			s.listener,
		)
	}
	return s.manager.RequestAudioFocus(ctx, s.request)
}

func (s *requestFocusStrategy) release(ctx context.Context) error {
	if s.request == nil {
		return nil
	}
	request := s.request
	s.request = nil
	return ignoreNotAHolder(s.manager.AbandonAudioFocusRequest(ctx, request))
}

type legacyFocusStrategy struct {
	manager  FocusManager
	listener audiofocus.Listener
}

func (s *legacyFocusStrategy) acquire(ctx context.Context) error {
	return s.manager.RequestAudioFocusLegacy(ctx, s.listener, audiofocus.StreamTypeMusic, audiofocus.ChangeGain)
}

func (s *legacyFocusStrategy) release(ctx context.Context) error {
	return ignoreNotAHolder(s.manager.AbandonAudioFocus(ctx, s.listener))
}

func ignoreNotAHolder(err error) error {
	if errors.Is(err, audiofocus.ErrNotAHolder) {
		return nil
	}
	return err
}

// focusListener decouples the recorder from the focus manager's
// registration mechanism.
type focusListener struct {
	recorder *MediaRecorder
}

var _ audiofocus.Listener = (*focusListener)(nil)

func (l *focusListener) OnAudioFocusChange(change audiofocus.Change) {
	l.recorder.onAudioFocusChange(change)
}

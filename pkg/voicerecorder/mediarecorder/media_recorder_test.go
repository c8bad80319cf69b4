package mediarecorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicerecorder/pkg/audiofocus"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
	"go.uber.org/goleak"
)

func TestNewAllocatesOutputFile(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		dirs := newFakeDirectories(t)
		device := newFakeDevice()
		r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
			cfg.Directories = dirs
			cfg.Now = func() time.Time { return time.UnixMilli(1700000000123) }
		})

		assert.Equal(t, dirs.temp, filepath.Dir(r.OutputFile()))
		base := filepath.Base(r.OutputFile())
		assert.True(t, strings.HasPrefix(base, "recording-1700000000123-"), base)
		assert.True(t, strings.HasSuffix(base, ".aac"), base)
		assert.FileExists(t, r.OutputFile())
		assert.Equal(t, r.OutputFile(), device.outputPath)
		assert.Equal(t, types.DefaultEncodingProfile, device.profile)
		assert.Equal(t, 1, device.Calls("Configure"))
		assert.Equal(t, 1, device.Calls("Prepare"))
		assert.Equal(t, types.RecordingStatusNone, r.Status())
	})

	t.Run("sub-directory", func(t *testing.T) {
		dirs := newFakeDirectories(t)
		opts := types.RecordOptions{
			Directory:    types.DirectoryDocuments,
			SubDirectory: "/voice/notes/",
		}
		r := newTestRecorder(t, newFakeDevice(), opts, func(cfg *Config) {
			cfg.Directories = dirs
		})

		assert.Equal(t,
			filepath.Join(dirs.root, string(types.DirectoryDocuments), "voice", "notes"),
			filepath.Dir(r.OutputFile()),
		)
		assert.Equal(t, opts, r.Options())

		require.NoError(t, r.DeleteOutputFile())
		assert.NoFileExists(t, r.OutputFile())
		require.NoError(t, r.DeleteOutputFile())
	})
}

func TestNewUnknownDirectory(t *testing.T) {
	factoryCalled := false
	_, err := New(context.Background(), Config{
		Options: types.RecordOptions{Directory: types.Directory("NOWHERE")},
		NewDevice: func(context.Context) (Device, error) {
			factoryCalled = true
			return newFakeDevice(), nil
		},
		Directories: newFakeDirectories(t),
	})
	require.ErrorIs(t, err, ErrNoLocation)
	assert.False(t, factoryCalled)
}

func TestNewPrepareFailure(t *testing.T) {
	dirs := newFakeDirectories(t)
	device := newFakeDevice()
	device.FailOn("Prepare", errors.New("busy"))

	_, err := New(context.Background(), Config{
		NewDevice: func(context.Context) (Device, error) {
			return device, nil
		},
		Directories: dirs,
	})
	require.Error(t, err)
	assert.Equal(t, 1, device.Calls("Release"))

	entries, err := os.ReadDir(dirs.temp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	device := newFakeDevice()
	r := newTestRecorder(t, device, types.RecordOptions{}, nil)

	require.NoError(t, r.Start(ctx))
	assert.Equal(t, types.RecordingStatusRecording, r.Status())
	require.ErrorIs(t, r.Start(ctx), ErrAlreadyStarted)

	ok, err := r.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Pause(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.RecordingStatusPaused, r.Status())

	ok, err = r.Pause(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.RecordingStatusRecording, r.Status())

	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, types.RecordingStatusNone, r.Status())
	require.NoError(t, r.Stop(ctx))
	require.ErrorIs(t, r.Start(ctx), ErrReleased)

	assert.Equal(t, 1, device.Calls("Start"))
	assert.Equal(t, 1, device.Calls("Pause"))
	assert.Equal(t, 1, device.Calls("Resume"))
	assert.Equal(t, 1, device.Calls("Stop"))
	assert.Equal(t, 1, device.Calls("Release"))

	ok, err = r.Pause(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	r.waitMetering()
}

func TestStartFailure(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	device.FailOn("Start", errors.New("no input"))
	focus := &fakeFocusManager{}
	r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
		cfg.Focus = focus
	})

	require.Error(t, r.Start(ctx))
	assert.Equal(t, types.RecordingStatusNone, r.Status())
	assert.Equal(t, []string{"RequestAudioFocus", "AbandonAudioFocusRequest"}, focus.Calls())
}

func TestPauseNotSupported(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
		cfg.Capabilities = StaticCapabilities{}
	})
	require.NoError(t, r.Start(ctx))
	defer r.Stop(ctx)

	_, err := r.Pause(ctx)
	require.ErrorIs(t, err, ErrNotSupportedOSVersion)
	_, err = r.Resume(ctx)
	require.ErrorIs(t, err, ErrNotSupportedOSVersion)
	assert.Equal(t, types.RecordingStatusRecording, r.Status())
	assert.Zero(t, device.Calls("Pause"))
}

func TestPauseFailureKeepsStatus(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	device.FailOn("Pause", errors.New("boom"))
	r := newTestRecorder(t, device, types.RecordOptions{}, nil)
	require.NoError(t, r.Start(ctx))
	defer r.Stop(ctx)

	ok, err := r.Pause(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, types.RecordingStatusRecording, r.Status())
}

func TestStopToleratesFailures(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	device.FailOn("Stop", errors.New("stop failed"))
	device.FailOn("Release", errors.New("release failed"))
	focus := &fakeFocusManager{}
	r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
		cfg.Focus = focus
	})
	require.NoError(t, r.Start(ctx))

	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, types.RecordingStatusNone, r.Status())
	assert.Equal(t, 1, device.Calls("Release"))
	assert.Equal(t, []string{"RequestAudioFocus", "AbandonAudioFocusRequest"}, focus.Calls())
}

func TestStopNeverStarted(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	r := newTestRecorder(t, device, types.RecordOptions{}, nil)

	require.NoError(t, r.Stop(ctx))
	assert.Zero(t, device.Calls("Stop"))
	assert.Equal(t, 1, device.Calls("Release"))
}

func TestFocusStrategySelection(t *testing.T) {
	for _, tc := range []struct {
		name         string
		focusRequest bool
		expected     []string
	}{
		{
			name:         "request",
			focusRequest: true,
			expected:     []string{"RequestAudioFocus", "RequestAudioFocus", "AbandonAudioFocusRequest"},
		},
		{
			name:         "legacy",
			focusRequest: false,
			expected:     []string{"RequestAudioFocusLegacy", "RequestAudioFocusLegacy", "AbandonAudioFocus"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			focus := &fakeFocusManager{}
			r := newTestRecorder(t, newFakeDevice(), types.RecordOptions{}, func(cfg *Config) {
				cfg.Focus = focus
				cfg.Capabilities = StaticCapabilities{Pause: true, FocusRequest: tc.focusRequest}
			})

			require.NoError(t, r.Start(ctx))
			_, err := r.Pause(ctx)
			require.NoError(t, err)
			_, err = r.Resume(ctx)
			require.NoError(t, err)
			require.NoError(t, r.Stop(ctx))

			assert.Equal(t, tc.expected, focus.Calls())
		})
	}
}

func TestFocusFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	focus := &fakeFocusManager{err: errors.New("denied")}
	r := newTestRecorder(t, newFakeDevice(), types.RecordOptions{}, func(cfg *Config) {
		cfg.Focus = focus
	})

	require.NoError(t, r.Start(ctx))
	assert.Equal(t, types.RecordingStatusRecording, r.Status())
	require.NoError(t, r.Stop(ctx))
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func assertNoSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInterruptionByAnotherFocusHolder(t *testing.T) {
	for _, focusRequest := range []bool{true, false} {
		t.Run(map[bool]string{true: "request", false: "legacy"}[focusRequest], func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
			ctx := context.Background()
			arbiter := audiofocus.NewArbiter(ctx)
			defer arbiter.Close()

			device := newFakeDevice()
			r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
				cfg.Focus = arbiter
				cfg.Capabilities = StaticCapabilities{Pause: true, FocusRequest: focusRequest}
			})

			began := make(chan struct{}, 4)
			ended := make(chan struct{}, 4)
			r.SetCallbacks(types.Callbacks{
				OnInterruptionBegan: func() { began <- struct{}{} },
				OnInterruptionEnded: func() { ended <- struct{}{} },
			})
			require.NoError(t, r.Start(ctx))

			call := audiofocus.NewRequest(
				audiofocus.ChangeGainTransient,
				audiofocus.Attributes{Usage: audiofocus.UsageVoiceCommunication, ContentType: audiofocus.ContentTypeSpeech},
				audiofocus.ListenerFunc(func(audiofocus.Change) {}),
			)
			require.NoError(t, arbiter.RequestAudioFocus(ctx, call))

			waitSignal(t, began)
			assert.Equal(t, types.RecordingStatusInterrupted, r.Status())
			assert.Equal(t, 1, device.Calls("Pause"))

			require.NoError(t, arbiter.AbandonAudioFocusRequest(ctx, call))
			waitSignal(t, ended)
			assert.Equal(t, types.RecordingStatusInterrupted, r.Status())
			assertNoSignal(t, began)

			ok, err := r.Resume(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, types.RecordingStatusRecording, r.Status())

			require.NoError(t, r.Stop(ctx))
			assert.Zero(t, arbiter.HoldersCount())
			r.waitMetering()
		})
	}
}

func TestFocusChangesOutsideRecording(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	r := newTestRecorder(t, device, types.RecordOptions{}, nil)

	began := make(chan struct{}, 4)
	ended := make(chan struct{}, 4)
	r.SetCallbacks(types.Callbacks{
		OnInterruptionBegan: func() { began <- struct{}{} },
		OnInterruptionEnded: func() { ended <- struct{}{} },
	})

	r.onAudioFocusChange(audiofocus.ChangeLoss)
	r.onAudioFocusChange(audiofocus.ChangeGain)
	assert.Equal(t, types.RecordingStatusNone, r.Status())

	require.NoError(t, r.Start(ctx))
	_, err := r.Pause(ctx)
	require.NoError(t, err)

	r.onAudioFocusChange(audiofocus.ChangeLossTransientCanDuck)
	r.onAudioFocusChange(audiofocus.ChangeGain)
	assert.Equal(t, types.RecordingStatusPaused, r.Status())

	_, err = r.Resume(ctx)
	require.NoError(t, err)
	r.onAudioFocusChange(audiofocus.ChangeLoss)
	assert.Equal(t, types.RecordingStatusInterrupted, r.Status())
	r.onAudioFocusChange(audiofocus.ChangeLossTransient)

	require.NoError(t, r.Stop(ctx))
	r.onAudioFocusChange(audiofocus.ChangeGain)

	assert.Len(t, began, 1)
	assert.Len(t, ended, 0)
	assert.Equal(t, 2, device.Calls("Pause"))
}

func TestInterruptionFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	device.FailOn("Pause", errors.New("boom"))
	r := newTestRecorder(t, device, types.RecordOptions{}, nil)
	began := make(chan struct{}, 1)
	r.SetCallbacks(types.Callbacks{
		OnInterruptionBegan: func() { began <- struct{}{} },
	})
	require.NoError(t, r.Start(ctx))
	defer r.Stop(ctx)

	r.onAudioFocusChange(audiofocus.ChangeLossTransient)
	assert.Equal(t, types.RecordingStatusRecording, r.Status())
	assert.Len(t, began, 0)
}

func TestVolumeMetering(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	device := newFakeDevice()
	device.SetAmplitude(32767)
	r := newTestRecorder(t, device, types.RecordOptions{VolumeMetering: true}, func(cfg *Config) {
		cfg.MeteringInterval = time.Millisecond
	})

	levels := make(chan float64, 1024)
	r.SetCallbacks(types.Callbacks{
		OnVolumeChanged: func(v float64) {
			select {
			case levels <- v:
			default:
			}
		},
	})

	next := func() float64 {
		select {
		case v := <-levels:
			return v
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a volume level")
			return 0
		}
	}

	require.NoError(t, r.Start(ctx))
	assert.InDelta(t, 0.5, next(), 1e-9)
	assert.InDelta(t, 0.75, next(), 1e-9)

	_, err := r.Pause(ctx)
	require.NoError(t, err)
	r.waitMetering()
	for len(levels) > 0 {
		<-levels
	}

	_, err = r.Resume(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, next(), 1e-9, "the smoother restarts from zero")

	require.NoError(t, r.Stop(ctx))
	r.waitMetering()
}

func TestVolumeMeteringDisabled(t *testing.T) {
	ctx := context.Background()
	device := newFakeDevice()
	device.SetAmplitude(32767)
	r := newTestRecorder(t, device, types.RecordOptions{}, func(cfg *Config) {
		cfg.MeteringInterval = time.Millisecond
	})
	called := make(chan struct{}, 1)
	r.SetCallbacks(types.Callbacks{
		OnVolumeChanged: func(float64) {
			select {
			case called <- struct{}{}:
			default:
			}
		},
	})

	require.NoError(t, r.Start(ctx))
	assertNoSignal(t, called)
	require.NoError(t, r.Stop(ctx))
}

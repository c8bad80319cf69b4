package mediarecorder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/voicerecorder/pkg/audiofocus"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/volume"
)

const DefaultMeteringInterval = 50 * time.Millisecond

var (
	ErrNotSupportedOSVersion = types.ErrNotSupportedOSVersion
	ErrAlreadyStarted        = errors.New("the recorder was already started")
	ErrReleased              = errors.New("the recorder is released")
)

type Config struct {
	Options          types.RecordOptions
	Profile          types.EncodingProfile
	NewDevice        DeviceFactory
	Directories      DirectoryResolver
	Capabilities     Capabilities
	Focus            FocusManager
	MeteringInterval time.Duration
	Now              func() time.Time
}

// MediaRecorder is a single capture session. It goes
// None -> Recording <-> Paused/Interrupted -> None, and is dead once
// stopped.
type MediaRecorder struct {
	locker     sync.Mutex
	ctx        context.Context
	config     Config
	device     Device
	outputFile string
	status     types.RecordingStatus
	started    bool
	released   bool
	callbacks  types.Callbacks
	focus      focusStrategy

	meter              volume.Meter
	meteringGeneration uint64
	meteringCancel     context.CancelFunc
	meteringWG         sync.WaitGroup
}

var _ types.Recorder = (*MediaRecorder)(nil)

// New allocates the output file and prepares the hardware. Nothing is left
// behind on failure.
func New(
	ctx context.Context,
	cfg Config,
) (_ret *MediaRecorder, _err error) {
	logger.Debugf(ctx, "mediarecorder.New(ctx, %#+v)", cfg.Options)
	defer func() { logger.Debugf(ctx, "/mediarecorder.New: %v", _err) }()

	if cfg.NewDevice == nil {
		return nil, fmt.Errorf("no device factory is provided")
	}
	if cfg.Directories == nil {
		return nil, fmt.Errorf("no directory resolver is provided")
	}
	if cfg.Capabilities == nil {
		cfg.Capabilities = StaticCapabilities{}
	}
	if cfg.Profile == (types.EncodingProfile{}) {
		cfg.Profile = types.DefaultEncodingProfile
	}
	if cfg.MeteringInterval <= 0 {
		cfg.MeteringInterval = DefaultMeteringInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	outputFile, err := allocateOutputFile(cfg.Directories, cfg.Options, cfg.Profile, cfg.Now())
	if err != nil {
		return nil, fmt.Errorf("unable to allocate the output file: %w", err)
	}

	device, err := cfg.NewDevice(ctx)
	if err != nil {
		_ = os.Remove(outputFile)
		return nil, fmt.Errorf("unable to open the capture device: %w", err)
	}

	err = configureDevice(ctx, device, cfg.Profile, outputFile)
	if err != nil {
		if releaseErr := device.Release(ctx); releaseErr != nil {
			logger.Warnf(ctx, "unable to release the capture device: %v", releaseErr)
		}
		_ = os.Remove(outputFile)
		return nil, err
	}

	r := &MediaRecorder{
		ctx:        context.WithoutCancel(ctx),
		config:     cfg,
		device:     device,
		outputFile: outputFile,
	}
	r.focus = newFocusStrategy(cfg.Focus, cfg.Capabilities, &focusListener{recorder: r})
	return r, nil
}

func configureDevice(
	ctx context.Context,
	device Device,
	profile types.EncodingProfile,
	outputFile string,
) error {
	if err := device.Configure(ctx, profile, outputFile); err != nil {
		return fmt.Errorf("unable to configure the capture device: %w", err)
	}
	if err := device.Prepare(ctx); err != nil {
		return fmt.Errorf("unable to prepare the capture device: %w", err)
	}
	return nil
}

func (r *MediaRecorder) SetCallbacks(callbacks types.Callbacks) {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.callbacks = callbacks
}

func (r *MediaRecorder) Status() types.RecordingStatus {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.status
}

func (r *MediaRecorder) Options() types.RecordOptions {
	return r.config.Options
}

func (r *MediaRecorder) OutputFile() string {
	return r.outputFile
}

func (r *MediaRecorder) DeleteOutputFile() error {
	err := os.Remove(r.outputFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (r *MediaRecorder) Start(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Start")
	defer func() { logger.Tracef(ctx, "/Start: %v", _err) }()

	r.locker.Lock()
	defer r.locker.Unlock()

	switch {
	case r.released:
		return ErrReleased
	case r.started:
		return ErrAlreadyStarted
	}

	r.acquireFocusLocked(ctx)
	if err := r.device.Start(ctx); err != nil {
		if releaseErr := r.focus.release(ctx); releaseErr != nil {
			logger.Warnf(ctx, "unable to abandon the audio focus: %v", releaseErr)
		}
		return fmt.Errorf("unable to start the capture: %w", err)
	}
	r.started = true
	r.status = types.RecordingStatusRecording
	r.startMeteringLocked()
	return nil
}

func (r *MediaRecorder) Pause(ctx context.Context) (_ret bool, _err error) {
	logger.Tracef(ctx, "Pause")
	defer func() { logger.Tracef(ctx, "/Pause: %v %v", _ret, _err) }()

	if !r.config.Capabilities.SupportsPause() {
		return false, ErrNotSupportedOSVersion
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	if r.status != types.RecordingStatusRecording {
		return false, nil
	}
	if err := r.device.Pause(ctx); err != nil {
		return false, fmt.Errorf("unable to pause the capture: %w", err)
	}
	r.stopMeteringLocked()
	r.status = types.RecordingStatusPaused
	return true, nil
}

func (r *MediaRecorder) Resume(ctx context.Context) (_ret bool, _err error) {
	logger.Tracef(ctx, "Resume")
	defer func() { logger.Tracef(ctx, "/Resume: %v %v", _ret, _err) }()

	if !r.config.Capabilities.SupportsPause() {
		return false, ErrNotSupportedOSVersion
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	switch r.status {
	case types.RecordingStatusPaused, types.RecordingStatusInterrupted:
	default:
		return false, nil
	}

	r.acquireFocusLocked(ctx)
	if err := r.device.Resume(ctx); err != nil {
		return false, fmt.Errorf("unable to resume the capture: %w", err)
	}
	r.status = types.RecordingStatusRecording
	r.startMeteringLocked()
	return true, nil
}

// Stop finishes the capture and releases everything. Failures are logged
// and tolerated: the output file is judged by the caller.
func (r *MediaRecorder) Stop(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Stop")
	defer func() { logger.Tracef(ctx, "/Stop: %v", _err) }()

	r.locker.Lock()
	defer r.locker.Unlock()

	if r.released {
		return nil
	}

	r.stopMeteringLocked()
	if r.status.IsActive() {
		if err := r.device.Stop(ctx); err != nil && !errors.Is(err, ErrAlreadyStopped) {
			logger.Warnf(ctx, "unable to stop the capture cleanly: %v", err)
		}
	}

	var mErr *multierror.Error
	if err := r.device.Release(ctx); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to release the capture device: %w", err))
	}
	if err := r.focus.release(ctx); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to abandon the audio focus: %w", err))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		logger.Warnf(ctx, "%v", err)
	}

	r.released = true
	r.status = types.RecordingStatusNone
	return nil
}

func (r *MediaRecorder) acquireFocusLocked(ctx context.Context) {
	if err := r.focus.acquire(ctx); err != nil {
		logger.Warnf(ctx, "unable to acquire the audio focus: %v", err)
	}
}

func (r *MediaRecorder) onAudioFocusChange(change audiofocus.Change) {
	ctx := r.ctx
	logger.Debugf(ctx, "onAudioFocusChange(%s)", change)

	var callback func()
	switch {
	case change.IsLoss():
		callback = r.interrupt(ctx)
	case change.IsGain():
		r.locker.Lock()
		if r.status == types.RecordingStatusInterrupted {
			callback = r.callbacks.OnInterruptionEnded
		}
		r.locker.Unlock()
	}

	if callback != nil {
		callback()
	}
}

func (r *MediaRecorder) interrupt(ctx context.Context) func() {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.status != types.RecordingStatusRecording {
		return nil
	}
	if !r.config.Capabilities.SupportsPause() {
		logger.Debugf(ctx, "the capture cannot be paused on this OS version; ignoring the focus loss")
		return nil
	}
	if err := r.device.Pause(ctx); err != nil {
		logger.Errorf(ctx, "unable to pause the capture on a focus loss: %v", err)
		return nil
	}
	r.stopMeteringLocked()
	r.status = types.RecordingStatusInterrupted
	return r.callbacks.OnInterruptionBegan
}

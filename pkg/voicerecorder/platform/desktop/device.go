package desktop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicerecorder/pkg/audio"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/resampler"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/mediarecorder"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

const DefaultBufferDuration = 2 * time.Second

type BackendOpener func(ctx context.Context) (audio.RecorderPCM, error)

type DeviceConfig struct {
	FFmpegPath     string
	OpenBackend    BackendOpener
	Lock           *MicrophoneLock
	BufferDuration time.Duration
}

// CaptureDevice records from a PCM backend and encodes with ffmpeg:
//
//	backend (f32le) -> amplitude tracking -> ring -> resampler (s16le) -> ffmpeg
type CaptureDevice struct {
	locker     sync.Mutex
	config     DeviceConfig
	profile    types.EncodingProfile
	outputPath string
	ffmpegPath string
	backend    audio.RecorderPCM

	stream    audio.RecordStream
	amplitude *amplitudeWriter
	ring      *pcmRing
	encoder   *encoder
	feedDone  chan error
	released  bool
}

var _ mediarecorder.Device = (*CaptureDevice)(nil)

func NewCaptureDevice(cfg DeviceConfig) *CaptureDevice {
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = DefaultBufferDuration
	}
	return &CaptureDevice{
		config: cfg,
	}
}

func (d *CaptureDevice) captureFormat() resampler.Format {
	return resampler.Format{
		Channels:   d.profile.Channels,
		SampleRate: d.profile.SampleRate,
		PCMFormat:  audio.PCMFormatFloat32LE,
	}
}

func (d *CaptureDevice) encodeFormat() resampler.Format {
	return resampler.Format{
		Channels:   d.profile.Channels,
		SampleRate: d.profile.SampleRate,
		PCMFormat:  audio.PCMFormatS16LE,
	}
}

func (d *CaptureDevice) Configure(
	ctx context.Context,
	profile types.EncodingProfile,
	outputPath string,
) error {
	d.locker.Lock()
	defer d.locker.Unlock()
	if profile.SampleRate == 0 || profile.Channels == 0 {
		return fmt.Errorf("the encoding profile has no sample rate or channels: %#+v", profile)
	}
	d.profile = profile
	d.outputPath = outputPath
	return nil
}

func (d *CaptureDevice) Prepare(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Prepare")
	defer func() { logger.Tracef(ctx, "/Prepare: %v", _err) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	if d.outputPath == "" {
		return fmt.Errorf("the device is not configured")
	}

	ffmpegPath, err := exec.LookPath(d.config.FFmpegPath)
	if err != nil {
		return fmt.Errorf("unable to find the encoder '%s': %w", d.config.FFmpegPath, err)
	}
	d.ffmpegPath = ffmpegPath

	backend, err := d.config.OpenBackend(ctx)
	if err != nil {
		return fmt.Errorf("unable to open a capture backend: %w", err)
	}
	d.backend = backend
	return nil
}

func (d *CaptureDevice) Start(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Start")
	defer func() { logger.Tracef(ctx, "/Start: %v", _err) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	switch {
	case d.released:
		return fmt.Errorf("the device is released")
	case d.backend == nil:
		return fmt.Errorf("the device is not prepared")
	case d.stream != nil:
		return fmt.Errorf("the capture is already running")
	}

	if d.config.Lock != nil {
		if err := d.config.Lock.Acquire(); err != nil {
			return fmt.Errorf("unable to lock the microphone: %w", err)
		}
	}
	err := d.startPipelineLocked(ctx)
	if err != nil && d.config.Lock != nil {
		if unlockErr := d.config.Lock.Release(); unlockErr != nil {
			logger.Warnf(ctx, "unable to unlock the microphone: %v", unlockErr)
		}
	}
	return err
}

func (d *CaptureDevice) startPipelineLocked(ctx context.Context) error {
	captureFormat := d.captureFormat()
	args, err := ffmpegArgs(d.encodeFormat(), d.profile, d.outputPath)
	if err != nil {
		return err
	}

	enc, err := startEncoder(ctx, d.ffmpegPath, args)
	if err != nil {
		return err
	}

	bufferSize := int(captureFormat.FrameSize()) * int(uint64(captureFormat.SampleRate)*uint64(d.config.BufferDuration)/uint64(time.Second))
	ring := newPCMRing(bufferSize)
	converter, err := resampler.NewResampler(captureFormat, ring, d.encodeFormat())
	if err != nil {
		_ = enc.Close()
		return fmt.Errorf("unable to initialize the sample converter: %w", err)
	}

	feedDone := make(chan error, 1)
	feedCtx := context.WithoutCancel(ctx)
	observability.Go(feedCtx, func() {
		ctx := feedCtx
		logger.Tracef(ctx, "feeding the encoder")
		_, err := io.Copy(enc, converter)
		logger.Tracef(ctx, "/feeding the encoder: %v", err)
		feedDone <- err
	})

	amplitude := newAmplitudeWriter(ring, captureFormat.PCMFormat)
	stream, err := d.backend.RecordPCM(ctx, captureFormat.SampleRate, captureFormat.Channels, captureFormat.PCMFormat, amplitude)
	if err != nil {
		_ = ring.Close()
		<-feedDone
		_ = enc.Close()
		return fmt.Errorf("unable to start capturing: %w", err)
	}

	d.stream = stream
	d.amplitude = amplitude
	d.ring = ring
	d.encoder = enc
	d.feedDone = feedDone
	return nil
}

// Stop finishes the capture and waits until the file is fully written.
func (d *CaptureDevice) Stop(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Stop")
	defer func() { logger.Tracef(ctx, "/Stop: %v", _err) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	return d.stopLocked(ctx)
}

func (d *CaptureDevice) stopLocked(ctx context.Context) error {
	if d.stream == nil {
		return mediarecorder.ErrAlreadyStopped
	}

	var mErr *multierror.Error
	if err := d.stream.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the capture stream: %w", err))
	}
	_ = d.ring.Close()
	if err := <-d.feedDone; err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to feed the encoder: %w", err))
	}
	if err := d.encoder.Close(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if d.config.Lock != nil {
		if err := d.config.Lock.Release(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to unlock the microphone: %w", err))
		}
	}
	logger.Debugf(ctx, "encoded %d bytes of PCM, dropped %d bytes", d.encoder.Count(), d.ring.Dropped())

	d.stream = nil
	return mErr.ErrorOrNil()
}

func (d *CaptureDevice) Pause(ctx context.Context) error {
	return d.setPaused(true)
}

func (d *CaptureDevice) Resume(ctx context.Context) error {
	return d.setPaused(false)
}

func (d *CaptureDevice) setPaused(paused bool) error {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.stream == nil {
		return fmt.Errorf("the capture is not running")
	}
	d.amplitude.SetPaused(paused)
	return nil
}

func (d *CaptureDevice) Release(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Release")
	defer func() { logger.Tracef(ctx, "/Release: %v", _err) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	if d.released {
		return nil
	}
	d.released = true

	var mErr *multierror.Error
	if err := d.stopLocked(ctx); err != nil && !errors.Is(err, mediarecorder.ErrAlreadyStopped) {
		mErr = multierror.Append(mErr, err)
	}
	if d.backend != nil {
		if err := d.backend.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the capture backend: %w", err))
		}
		d.backend = nil
	}
	return mErr.ErrorOrNil()
}

func (d *CaptureDevice) MaxAmplitude() int {
	d.locker.Lock()
	amplitude := d.amplitude
	d.locker.Unlock()
	if amplitude == nil {
		return 0
	}
	return amplitude.TakeMaxAmplitude()
}

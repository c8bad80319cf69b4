package desktop

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicerecorder/pkg/adts"
	"github.com/xaionaro-go/voicerecorder/pkg/audio"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/config"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/mediarecorder"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

type Config struct {
	Desktop          config.Desktop
	Capabilities     mediarecorder.Capabilities
	MeteringInterval time.Duration
	Focus            mediarecorder.FocusManager

	// OpenBackend defaults to the highest-priority registered backend.
	OpenBackend BackendOpener
}

// ConfigFrom builds the platform configuration out of the loaded
// application configuration.
func ConfigFrom(cfg config.Config, focus mediarecorder.FocusManager) Config {
	return Config{
		Desktop: cfg.Desktop,
		Capabilities: mediarecorder.StaticCapabilities{
			Pause:        cfg.Capabilities.Pause,
			FocusRequest: cfg.Capabilities.FocusRequest,
		},
		MeteringInterval: cfg.MeteringInterval,
		Focus:            focus,
	}
}

// Platform records through the local PCM backends and encodes with ffmpeg.
type Platform struct {
	config      Config
	directories Directories
	lock        *MicrophoneLock
}

var (
	_ types.Platform          = (*Platform)(nil)
	_ types.PermissionChecker = (*Platform)(nil)
)

func New(cfg Config) *Platform {
	if cfg.OpenBackend == nil {
		cfg.OpenBackend = openAutoBackend
	}
	if cfg.Desktop.FFmpegPath == "" {
		cfg.Desktop.FFmpegPath = "ffmpeg"
	}
	if cfg.Desktop.AppName == "" {
		cfg.Desktop.AppName = "voicerecorder"
	}
	dirs := NewDirectories(cfg.Desktop)
	return &Platform{
		config:      cfg,
		directories: dirs,
		lock:        NewMicrophoneLock(dirs.MicrophoneLockPath()),
	}
}

func openAutoBackend(ctx context.Context) (audio.RecorderPCM, error) {
	return audio.NewRecorderAutoStrict(ctx)
}

func (p *Platform) Directories() Directories {
	return p.directories
}

func (p *Platform) CanRecord(ctx context.Context) bool {
	if _, err := exec.LookPath(p.config.Desktop.FFmpegPath); err != nil {
		logger.Debugf(ctx, "the encoder is not available: %v", err)
		return false
	}
	backend, err := p.config.OpenBackend(ctx)
	if err != nil {
		logger.Debugf(ctx, "no capture backend is available: %v", err)
		return false
	}
	if err := backend.Close(); err != nil {
		logger.Warnf(ctx, "unable to close the capture backend: %v", err)
	}
	return true
}

// HasAudioPermission reports whether the capture backend accepts this
// process as a client.
func (p *Platform) HasAudioPermission(ctx context.Context) bool {
	backend, err := p.config.OpenBackend(ctx)
	if err != nil {
		logger.Debugf(ctx, "unable to open a capture backend: %v", err)
		return false
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warnf(ctx, "unable to close the capture backend: %v", err)
		}
	}()
	if err := backend.Ping(ctx); err != nil {
		logger.Debugf(ctx, "the capture backend rejected a ping: %v", err)
		return false
	}
	return true
}

func (p *Platform) IsMicrophoneOccupied(ctx context.Context) bool {
	occupied := p.lock.IsHeldByOthers()
	logger.Tracef(ctx, "IsMicrophoneOccupied: %v", occupied)
	return occupied
}

func (p *Platform) CreateRecorder(
	ctx context.Context,
	opts types.RecordOptions,
) (types.Recorder, error) {
	return mediarecorder.New(ctx, mediarecorder.Config{
		Options:          opts,
		Profile:          types.DefaultEncodingProfile,
		NewDevice:        p.newDevice,
		Directories:      p.directories,
		Capabilities:     p.config.Capabilities,
		Focus:            p.config.Focus,
		MeteringInterval: p.config.MeteringInterval,
	})
}

func (p *Platform) newDevice(ctx context.Context) (mediarecorder.Device, error) {
	return NewCaptureDevice(DeviceConfig{
		FFmpegPath:  p.config.Desktop.FFmpegPath,
		OpenBackend: p.config.OpenBackend,
		Lock:        p.lock,
	}), nil
}

func (p *Platform) ReadAsPayload(ctx context.Context, path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf(ctx, "unable to read '%s': %v", path, err)
		return "", false
	}
	return base64.StdEncoding.EncodeToString(b), true
}

func (p *Platform) DurationMs(ctx context.Context, path string) int {
	stats, err := adts.ScanFile(path)
	if err != nil {
		logger.Errorf(ctx, "unable to measure the duration of '%s': %v", path, err)
		return -1
	}
	return int(stats.Duration().Milliseconds())
}

func (p *Platform) ToReferenceURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

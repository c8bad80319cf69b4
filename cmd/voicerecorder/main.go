package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	_ "github.com/xaionaro-go/voicerecorder/pkg/audio/backends/portaudio"
	_ "github.com/xaionaro-go/voicerecorder/pkg/audio/backends/pulseaudio"
	"github.com/xaionaro-go/voicerecorder/pkg/audiofocus"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/bridge"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/config"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/platform/desktop"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/response"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/service"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML config file")
	directory := pflag.String("directory", "", "keep the recording in this directory (DOCUMENTS, DATA, LIBRARY, CACHE, EXTERNAL, EXTERNAL_STORAGE); inline base64 if empty")
	subDirectory := pflag.String("sub-directory", "", "sub-directory inside --directory")
	volumeMetering := pflag.Bool("volume-metering", false, "emit volumeChanged events")
	duration := pflag.Duration("duration", 0, "stop after this long; 0 means until interrupted")
	pflag.String("response-format", "legacy", "legacy or normalized")
	pflag.Duration("metering-interval", 50*time.Millisecond, "interval between volume samples")
	pflag.String("ffmpeg-path", "ffmpeg", "path to the ffmpeg binary")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [method [json-args]]\n\nwithout a method a recording is made\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	cfg, err := config.Load(*configPath, pflag.CommandLine)
	assertNoError(err)
	if loggerLevel >= logger.LevelDebug {
		logger.Debugf(ctx, "config: %s", spew.Sdump(cfg))
	}

	focus := audiofocus.NewArbiter(ctx)
	defer focus.Close()

	platform := desktop.New(desktop.ConfigFrom(cfg, focus))
	svc := service.New(platform, platform, nil)
	out := newPrinter()
	b := bridge.New(svc, cfg.Format(), bridge.NotifierFunc(func(event string, data any) {
		out.print(map[string]any{"event": event, "data": data})
	}))

	if pflag.NArg() > 0 {
		var args json.RawMessage
		if pflag.NArg() > 1 {
			args = json.RawMessage(pflag.Arg(1))
		}
		result, err := b.Call(ctx, pflag.Arg(0), args)
		assertNoError(err)
		out.print(result)
		return
	}

	startArgs, err := json.Marshal(bridge.StartOptions{
		Directory:      *directory,
		SubDirectory:   *subDirectory,
		VolumeMetering: *volumeMetering,
	})
	assertNoError(err)
	result, err := b.Call(ctx, bridge.MethodStartRecording, startArgs)
	assertNoError(err)
	out.print(result)
	if result.Error != nil {
		os.Exit(1)
	}

	record(ctx, b, focus, out, *duration)

	result, err = b.Call(ctx, bridge.MethodStopRecording, nil)
	assertNoError(err)
	out.print(result)
	if result.Error != nil {
		os.Exit(1)
	}
}

// record waits until the duration elapses or the process is interrupted.
// SIGUSR1 toggles pause/resume and SIGUSR2 toggles a transient focus
// request from another player.
func record(
	ctx context.Context,
	b *bridge.Bridge,
	focus *audiofocus.Arbiter,
	out *printer,
	duration time.Duration,
) {
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()
	if duration > 0 {
		var timeoutCancelFn context.CancelFunc
		ctx, timeoutCancelFn = context.WithTimeout(ctx, duration)
		defer timeoutCancelFn()
	}

	userCh := make(chan os.Signal, 1)
	signal.Notify(userCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(userCh)

	var otherPlayer *audiofocus.Request
	paused := false
	for {
		select {
		case <-ctx.Done():
			if otherPlayer != nil {
				_ = focus.AbandonAudioFocusRequest(ctx, otherPlayer)
			}
			return
		case sig := <-userCh:
			switch sig {
			case syscall.SIGUSR1:
				method := bridge.MethodPauseRecording
				if paused {
					method = bridge.MethodResumeRecording
				}
				result, err := b.Call(ctx, method, nil)
				assertNoError(err)
				out.print(result)
				if applied(result) {
					paused = !paused
				}
			case syscall.SIGUSR2:
				if otherPlayer == nil {
					otherPlayer = audiofocus.NewRequest(
						audiofocus.ChangeGainTransient,
						audiofocus.Attributes{Usage: audiofocus.UsageNotification},
						audiofocus.ListenerFunc(func(change audiofocus.Change) {
							logger.Debugf(ctx, "the other player got %s", change)
						}),
					)
					assertNoError(focus.RequestAudioFocus(ctx, otherPlayer))
					continue
				}
				assertNoError(focus.AbandonAudioFocusRequest(ctx, otherPlayer))
				otherPlayer = nil
			}
		}
	}
}

// applied reports whether a pause/resume call actually changed the state.
func applied(result bridge.Result) bool {
	if result.Error != nil {
		return false
	}
	value, ok := result.Payload.(response.ValueResponse[bool])
	return ok && value.Value
}

type printer struct {
	locker  sync.Mutex
	encoder *json.Encoder
}

func newPrinter() *printer {
	return &printer{
		encoder: json.NewEncoder(os.Stdout),
	}
}

func (p *printer) print(v any) {
	p.locker.Lock()
	defer p.locker.Unlock()
	assertNoError(p.encoder.Encode(v))
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}

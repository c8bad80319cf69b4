package desktop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/voicerecorder/pkg/audio"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/resampler"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

func ffmpegInputFormat(f audio.PCMFormat) (string, error) {
	switch f {
	case audio.PCMFormatS16LE:
		return "s16le", nil
	case audio.PCMFormatFloat32LE:
		return "f32le", nil
	default:
		return "", fmt.Errorf("PCM format %s is not supported by the encoder", f)
	}
}

func ffmpegArgs(
	in resampler.Format,
	profile types.EncodingProfile,
	outputPath string,
) ([]string, error) {
	inFormat, err := ffmpegInputFormat(in.PCMFormat)
	if err != nil {
		return nil, err
	}
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-f", inFormat,
		"-ar", strconv.FormatUint(uint64(in.SampleRate), 10),
		"-ac", strconv.FormatUint(uint64(in.Channels), 10),
		"-i", "pipe:0",
		"-c:a", profile.Codec,
		"-b:a", strconv.FormatUint(uint64(profile.BitRate), 10),
		"-ar", strconv.FormatUint(uint64(profile.SampleRate), 10),
		"-ac", strconv.FormatUint(uint64(profile.Channels), 10),
		"-f", profile.Container,
		"-y", outputPath,
	}, nil
}

// encoder is an ffmpeg process consuming raw PCM on its stdin.
type encoder struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	counter *datacounter.WriterCounter
	stderr  bytes.Buffer
}

var _ io.Writer = (*encoder)(nil)

func startEncoder(
	ctx context.Context,
	ffmpegPath string,
	args []string,
) (*encoder, error) {
	logger.Debugf(ctx, "starting %s %s", ffmpegPath, strings.Join(args, " "))

	e := &encoder{
		cmd: exec.Command(ffmpegPath, args...),
	}
	e.cmd.Stderr = &e.stderr
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to get the stdin of ffmpeg: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start '%s': %w", ffmpegPath, err)
	}
	e.stdin = stdin
	e.counter = datacounter.NewWriterCounter(stdin)
	return e, nil
}

func (e *encoder) Write(p []byte) (int, error) {
	return e.counter.Write(p)
}

// Count returns how many PCM bytes were fed to the encoder.
func (e *encoder) Count() uint64 {
	return e.counter.Count()
}

// Close finishes the stream and waits for ffmpeg to flush the file.
func (e *encoder) Close() error {
	closeErr := e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(e.stderr.String()))
	}
	if closeErr != nil {
		return fmt.Errorf("unable to close the stdin of ffmpeg: %w", closeErr)
	}
	return nil
}

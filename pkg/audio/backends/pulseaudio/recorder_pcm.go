package pulseaudio

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

// ApplicationName is how the capture client shows up in the Pulse mixer.
var ApplicationName = "voicerecorder"

const mediaName = "voice recording"

type RecorderPCM struct {
	PulseClient *pulse.Client
}

var _ types.RecorderPCM = (*RecorderPCM)(nil)

func NewRecorderPCM() (*RecorderPCM, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName(ApplicationName))
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return &RecorderPCM{
		PulseClient: c,
	}, nil
}

func (r *RecorderPCM) Close() error {
	r.PulseClient.Close()
	return nil
}

// Ping succeeds if the server has a default capture source.
func (r *RecorderPCM) Ping(ctx context.Context) error {
	source, err := r.PulseClient.DefaultSource()
	if err != nil {
		return fmt.Errorf("unable to get the default source: %w", err)
	}
	logger.Debugf(ctx, "default source: %s", source.Name())
	return nil
}

func (r *RecorderPCM) RecordPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	rawWriter io.Writer,
) (_ types.RecordStream, _err error) {
	logger.Debugf(ctx, "RecordPCM: %d %d %s", sampleRate, channels, format)
	defer func() { logger.Debugf(ctx, "/RecordPCM: %v", _err) }()

	writer, err := newPulseWriter(format, rawWriter)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a writer for Pulse: %w", err)
	}

	chanMap := proto.ChannelMap{proto.ChannelMono}
	switch channels {
	case 1:
	case 2:
		chanMap = proto.ChannelMap{proto.ChannelLeft, proto.ChannelRight}
	default:
		return nil, fmt.Errorf("do not know how to configure %d channels", channels)
	}

	stream, err := r.PulseClient.NewRecord(
		writer,
		pulse.RecordSampleRate(int(sampleRate)),
		pulse.RecordChannels(chanMap),
		pulse.RecordMediaName(mediaName),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a recording: %w", err)
	}

	stream.Start()
	if stream.Error() != nil {
		stream.Close()
		return nil, fmt.Errorf("an error occurred during recording: %w", stream.Error())
	}

	return newRecordStream(stream), nil
}

type pulseWriter struct {
	pulseFormat byte
	io.Writer
}

func newPulseWriter(pcmFormat types.PCMFormat, writer io.Writer) (*pulseWriter, error) {
	var pulseFormat byte
	switch pcmFormat {
	case types.PCMFormatFloat32LE:
		pulseFormat = proto.FormatFloat32LE
	case types.PCMFormatS16LE:
		pulseFormat = proto.FormatInt16LE
	default:
		return nil, fmt.Errorf("received an unexpected format: %v", pcmFormat)
	}
	return &pulseWriter{
		pulseFormat: pulseFormat,
		Writer:      writer,
	}, nil
}

var _ pulse.Writer = (*pulseWriter)(nil)

func (r pulseWriter) Format() byte {
	return r.pulseFormat
}

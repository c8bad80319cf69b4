package portaudio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
	"unsafe"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

const (
	RecordBufferSize = time.Millisecond * 50
)

type RecordPCMStream struct {
	PortAudioStream *portaudio.Stream
	InputBuffer     []byte
	Writer          io.Writer
	CancelFunc      context.CancelFunc
	WaitGroup       sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

var _ types.RecordStream = (*RecordPCMStream)(nil)

func newRecordPCMStream[T any](
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
) (*RecordPCMStream, error) {
	bufferItemsCount := int(RecordBufferSize.Seconds()*float64(sampleRate)) * int(channels)

	var sample T
	buf := make([]T, bufferItemsCount)
	logger.Debugf(ctx, "newRecordPCMStream: %T, %d, %d %s(%d)", sample, sampleRate, channels, RecordBufferSize, bufferItemsCount)
	stream, err := portaudio.OpenDefaultStream(int(channels), 0, float64(sampleRate), bufferItemsCount/int(channels), buf)
	if err != nil {
		return nil, err
	}

	ptr := unsafe.SliceData(buf)
	bytesBuf := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(buf)*int(unsafe.Sizeof(sample)))

	logger.Debugf(ctx, "input bytes buffer size: %d", len(bytesBuf))
	return &RecordPCMStream{
		PortAudioStream: stream,
		InputBuffer:     bytesBuf,
		CancelFunc:      func() {},
	}, nil
}

func (s *RecordPCMStream) init(
	ctx context.Context,
	writer io.Writer,
) error {
	s.Writer = writer
	ctx, s.CancelFunc = context.WithCancel(ctx)

	err := s.PortAudioStream.Start()
	if err != nil {
		return fmt.Errorf("unable to start the stream: %w", err)
	}

	s.WaitGroup.Add(1)
	observability.Go(ctx, func() {
		defer s.WaitGroup.Done()
		defer s.CancelFunc()
		s.readerLoop(ctx)
	})
	return nil
}

func (s *RecordPCMStream) readerLoop(
	ctx context.Context,
) (_ret error) {
	logger.Debugf(ctx, "readerLoop")
	defer func() { logger.Debugf(ctx, "/readerLoop: %v", _ret) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logger.Tracef(ctx, "Read")
		err := s.PortAudioStream.Read()
		logger.Tracef(ctx, "/Read: %v", err)
		if err != nil {
			return fmt.Errorf("unable to read: %w", err)
		}

		n, err := s.Writer.Write(s.InputBuffer)
		if err != nil {
			return fmt.Errorf("unable to write: %w", err)
		}
		if n != len(s.InputBuffer) {
			return fmt.Errorf("invalid write length: %d != %d", n, len(s.InputBuffer))
		}
	}
}

func (s *RecordPCMStream) Close() error {
	s.closeOnce.Do(func() {
		s.CancelFunc()
		s.closeErr = s.PortAudioStream.Abort()
		s.WaitGroup.Wait()
		if err := s.PortAudioStream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}

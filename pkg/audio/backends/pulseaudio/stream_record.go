package pulseaudio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
	"github.com/xaionaro-go/voicerecorder/pkg/audio/types"
)

type RecordStream struct {
	*pulse.RecordStream
}

var _ types.RecordStream = (*RecordStream)(nil)

func newRecordStream(
	pulseStream *pulse.RecordStream,
) *RecordStream {
	return &RecordStream{
		RecordStream: pulseStream,
	}
}

// Close stops the recording; the client stays open, it belongs to RecorderPCM.
func (stream *RecordStream) Close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	stream.RecordStream.Stop()
	stream.RecordStream.Close()
	if streamErr := stream.RecordStream.Error(); streamErr != nil {
		return fmt.Errorf("an error occurred during recording: %w", streamErr)
	}
	return
}

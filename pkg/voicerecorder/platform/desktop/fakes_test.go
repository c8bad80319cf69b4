package desktop

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicerecorder/pkg/audio"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/config"
)

// toneBackend plays a constant-amplitude square wave into the writer every
// 10ms until the stream is closed.
type toneBackend struct {
	amplitude float32
	pingErr   error

	locker sync.Mutex
	closed bool
}

var _ audio.RecorderPCM = (*toneBackend)(nil)

func (b *toneBackend) Close() error {
	b.locker.Lock()
	defer b.locker.Unlock()
	b.closed = true
	return nil
}

func (b *toneBackend) IsClosed() bool {
	b.locker.Lock()
	defer b.locker.Unlock()
	return b.closed
}

func (b *toneBackend) Ping(context.Context) error {
	return b.pingErr
}

func (b *toneBackend) RecordPCM(
	ctx context.Context,
	sampleRate audio.SampleRate,
	channels audio.Channel,
	format audio.PCMFormat,
	writer io.Writer,
) (audio.RecordStream, error) {
	if format != audio.PCMFormatFloat32LE {
		return nil, errors.New("only f32le is supported")
	}
	frames := int(sampleRate) / 100
	chunk := make([]byte, frames*int(channels)*4)
	for i := 0; i < frames*int(channels); i++ {
		v := b.amplitude
		if i%2 == 1 {
			v = -v
		}
		binary.LittleEndian.PutUint32(chunk[i*4:], math.Float32bits(v))
	}

	s := &toneStream{
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	observability.Go(ctx, func() {
		defer close(s.finished)
		t := time.NewTicker(10 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				if _, err := writer.Write(chunk); err != nil {
					return
				}
			}
		}
	})
	return s, nil
}

type toneStream struct {
	closeOnce sync.Once
	done      chan struct{}
	finished  chan struct{}
}

func (s *toneStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.finished
	return nil
}

func openTone(backend *toneBackend) BackendOpener {
	return func(ctx context.Context) (audio.RecorderPCM, error) {
		return backend, nil
	}
}

func requireFFmpeg(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg is not installed")
	}
	return path
}

func testDesktopConfig(t *testing.T) config.Desktop {
	root := t.TempDir()
	return config.Desktop{
		AppName:      "voicerecorder-test",
		FFmpegPath:   "ffmpeg",
		DocumentsDir: root + "/documents",
		DataDir:      root + "/data",
		CacheDir:     root + "/cache",
		RuntimeDir:   root + "/run",
	}
}

// adtsFrame builds an AAC-LC mono 44.1kHz frame holding one raw data block.
func adtsFrame(payloadSize int) []byte {
	b := make([]byte, 7+payloadSize)
	length := len(b)
	b[0] = 0xFF
	b[1] = 0xF1
	b[2] = 1<<6 | 4<<2
	b[3] = 1<<6 | byte(length>>11)&0x03
	b[4] = byte(length >> 3)
	b[5] = byte(length&0x07)<<5 | 0x1F
	b[6] = 0xFC
	return b
}

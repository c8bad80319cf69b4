package desktop

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/iamcalledrob/circular"
)

// pcmRing connects the capture callback, which must never block, to the
// encoder feeder, which blocks until there is data. Chunks that do not fit
// are dropped whole so frames stay aligned.
type pcmRing struct {
	locker     sync.Mutex
	buffer     *circular.Buffer
	closed     bool
	dropped    uint64
	progressCh chan struct{}
}

var (
	_ io.Writer = (*pcmRing)(nil)
	_ io.Reader = (*pcmRing)(nil)
)

func newPCMRing(size int) *pcmRing {
	return &pcmRing{
		buffer:     circular.NewBuffer(size),
		progressCh: make(chan struct{}),
	}
}

func (r *pcmRing) notifyLocked() {
	oldCh := r.progressCh
	r.progressCh = make(chan struct{})
	close(oldCh)
}

func (r *pcmRing) Write(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.buffer.Space() < len(p) {
		r.dropped += uint64(len(p))
		return len(p), nil
	}

	w, err := r.buffer.Write(p)
	switch {
	case err != nil:
		return 0, fmt.Errorf("unable to write to the circular buffer: %w", err)
	case w != len(p):
		return w, fmt.Errorf("wrote != requested: %d != %d", w, len(p))
	}
	r.notifyLocked()
	return len(p), nil
}

// Read blocks until there is data; it returns io.EOF once the ring is
// closed and drained.
func (r *pcmRing) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		r.locker.Lock()
		n, err := r.buffer.Read(p)
		if n > 0 {
			r.locker.Unlock()
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			r.locker.Unlock()
			return 0, fmt.Errorf("unable to read from the circular buffer: %w", err)
		}
		if r.closed {
			r.locker.Unlock()
			return 0, io.EOF
		}
		waitCh := r.progressCh
		r.locker.Unlock()
		<-waitCh
	}
}

func (r *pcmRing) Close() error {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.notifyLocked()
	return nil
}

// Dropped returns how many bytes were discarded because the reader lagged.
func (r *pcmRing) Dropped() uint64 {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.dropped
}

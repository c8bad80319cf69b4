package audiofocus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

var (
	ErrClosed      = errors.New("the arbiter is closed")
	ErrInvalidGain = errors.New("invalid focus gain")
	ErrNilListener = errors.New("listener is nil")
	ErrNotAHolder  = errors.New("not a focus holder")
	ErrNotARequest = errors.New("request is nil")

	ErrListenerNotComparable = errors.New("legacy focus listeners must be comparable")
)

type holder struct {
	Request  *Request
	Listener Listener
	Stream   StreamType
	Gain     Change
}

func (h *holder) matches(request *Request, listener Listener) bool {
	if request != nil {
		return h.Request == request
	}
	return h.Request == nil && h.Listener == listener
}

type notification struct {
	Listener Listener
	Change   Change
}

// Arbiter is an in-process audio focus stack. The most recent requester
// holds the focus; previous holders are notified about the loss and,
// unless the loss was permanent, regain the focus when the newer holder
// abandons it. Notifications are delivered asynchronously, one at a time,
// in the order they were produced.
type Arbiter struct {
	locker     sync.Mutex
	stack      []*holder
	queue      []notification
	wakeCh     chan struct{}
	closed     bool
	cancelFunc context.CancelFunc
	waitGroup  sync.WaitGroup
}

func NewArbiter(ctx context.Context) *Arbiter {
	ctx, cancelFn := context.WithCancel(ctx)
	a := &Arbiter{
		wakeCh:     make(chan struct{}, 1),
		cancelFunc: cancelFn,
	}
	a.waitGroup.Add(1)
	observability.Go(ctx, func() {
		defer a.waitGroup.Done()
		a.dispatchLoop(ctx)
	})
	return a
}

func (a *Arbiter) RequestAudioFocus(
	ctx context.Context,
	request *Request,
) error {
	if request == nil {
		return ErrNotARequest
	}
	if request.Listener == nil {
		return ErrNilListener
	}
	return a.push(ctx, &holder{
		Request:  request,
		Listener: request.Listener,
		Gain:     request.Gain,
	})
}

func (a *Arbiter) AbandonAudioFocusRequest(
	ctx context.Context,
	request *Request,
) error {
	if request == nil {
		return ErrNotARequest
	}
	return a.remove(ctx, request, nil)
}

func (a *Arbiter) RequestAudioFocusLegacy(
	ctx context.Context,
	listener Listener,
	stream StreamType,
	gain Change,
) error {
	if listener == nil {
		return ErrNilListener
	}
	if !reflect.TypeOf(listener).Comparable() {
		return ErrListenerNotComparable
	}
	return a.push(ctx, &holder{
		Listener: listener,
		Stream:   stream,
		Gain:     gain,
	})
}

func (a *Arbiter) AbandonAudioFocus(
	ctx context.Context,
	listener Listener,
) error {
	if listener == nil {
		return ErrNilListener
	}
	if !reflect.TypeOf(listener).Comparable() {
		return ErrListenerNotComparable
	}
	return a.remove(ctx, nil, listener)
}

// HoldersCount returns how many requesters are currently stacked.
func (a *Arbiter) HoldersCount() int {
	a.locker.Lock()
	defer a.locker.Unlock()
	return len(a.stack)
}

func (a *Arbiter) push(
	ctx context.Context,
	h *holder,
) error {
	if !h.Gain.IsGain() {
		return fmt.Errorf("%w: %s", ErrInvalidGain, h.Gain)
	}

	a.locker.Lock()
	defer a.locker.Unlock()
	if a.closed {
		return ErrClosed
	}

	a.stack = removeHolder(a.stack, h.Request, h.Listener)
	if len(a.stack) > 0 {
		prev := a.stack[len(a.stack)-1]
		loss := lossFor(h.Gain)
		logger.Debugf(ctx, "focus moves from %T to %T (%s)", prev.Listener, h.Listener, loss)
		a.enqueueLocked(prev.Listener, loss)
		if loss == ChangeLoss {
			a.stack = a.stack[:len(a.stack)-1]
		}
	}
	a.stack = append(a.stack, h)
	return nil
}

func (a *Arbiter) remove(
	ctx context.Context,
	request *Request,
	listener Listener,
) error {
	a.locker.Lock()
	defer a.locker.Unlock()
	if a.closed {
		return ErrClosed
	}

	idx := -1
	for i, h := range a.stack {
		if h.matches(request, listener) {
			idx = i
		}
	}
	if idx < 0 {
		return ErrNotAHolder
	}

	wasTop := idx == len(a.stack)-1
	a.stack = append(a.stack[:idx], a.stack[idx+1:]...)
	if wasTop && len(a.stack) > 0 {
		next := a.stack[len(a.stack)-1]
		logger.Debugf(ctx, "focus returns to %T", next.Listener)
		a.enqueueLocked(next.Listener, ChangeGain)
	}
	return nil
}

func removeHolder(stack []*holder, request *Request, listener Listener) []*holder {
	result := stack[:0]
	for _, h := range stack {
		if h.matches(request, listener) {
			continue
		}
		result = append(result, h)
	}
	return result
}

func (a *Arbiter) enqueueLocked(listener Listener, change Change) {
	a.queue = append(a.queue, notification{
		Listener: listener,
		Change:   change,
	})
	select {
	case a.wakeCh <- struct{}{}:
	default:
	}
}

func (a *Arbiter) dispatchLoop(ctx context.Context) {
	logger.Tracef(ctx, "dispatchLoop")
	defer logger.Tracef(ctx, "/dispatchLoop")

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.wakeCh:
		}

		a.locker.Lock()
		queue := a.queue
		a.queue = nil
		a.locker.Unlock()

		for _, n := range queue {
			logger.Tracef(ctx, "notifying %T about %s", n.Listener, n.Change)
			n.Listener.OnAudioFocusChange(n.Change)
		}
	}
}

func (a *Arbiter) Close() error {
	a.locker.Lock()
	if a.closed {
		a.locker.Unlock()
		return ErrClosed
	}
	a.closed = true
	a.stack = nil
	a.locker.Unlock()

	a.cancelFunc()
	a.waitGroup.Wait()
	return nil
}

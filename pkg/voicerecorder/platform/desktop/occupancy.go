package desktop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

var ErrMicrophoneBusy = errors.New("the microphone is used by another process")

// MicrophoneLock is an advisory lock file holding the pid of the process
// that is recording. Locks of dead processes are taken over.
type MicrophoneLock struct {
	locker sync.Mutex
	path   string
	pid    int
	held   bool
}

func NewMicrophoneLock(path string) *MicrophoneLock {
	return &MicrophoneLock{
		path: path,
		pid:  os.Getpid(),
	}
}

func (l *MicrophoneLock) Path() string {
	return l.path
}

func (l *MicrophoneLock) Acquire() error {
	l.locker.Lock()
	defer l.locker.Unlock()
	if l.held {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("unable to create the directory for '%s': %w", l.path, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, writeErr := f.WriteString(strconv.Itoa(l.pid))
			closeErr := f.Close()
			if err := multierror.Append(writeErr, closeErr).ErrorOrNil(); err != nil {
				_ = os.Remove(l.path)
				return fmt.Errorf("unable to write '%s': %w", l.path, err)
			}
			l.held = true
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("unable to create '%s': %w", l.path, err)
		}

		owner, ok := readOwner(l.path)
		if ok && owner != l.pid && processAlive(owner) {
			return fmt.Errorf("%w (pid %d)", ErrMicrophoneBusy, owner)
		}
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to remove the stale lock '%s': %w", l.path, err)
		}
	}
	return ErrMicrophoneBusy
}

func (l *MicrophoneLock) Release() error {
	l.locker.Lock()
	defer l.locker.Unlock()
	if !l.held {
		return nil
	}
	l.held = false
	if owner, ok := readOwner(l.path); ok && owner != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to remove '%s': %w", l.path, err)
	}
	return nil
}

// IsHeldByOthers reports whether a live process other than this one holds
// the lock.
func (l *MicrophoneLock) IsHeldByOthers() bool {
	owner, ok := readOwner(l.path)
	if !ok || owner == l.pid {
		return false
	}
	return processAlive(owner)
}

func readOwner(path string) (int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

package mediarecorder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xaionaro-go/voicerecorder/pkg/audiofocus"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

type fakeDevice struct {
	locker     sync.Mutex
	calls      map[string]int
	errs       map[string]error
	amplitude  int
	outputPath string
	profile    types.EncodingProfile
}

var _ Device = (*fakeDevice)(nil)

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		calls: map[string]int{},
		errs:  map[string]error{},
	}
}

func (d *fakeDevice) call(name string) error {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.calls[name]++
	return d.errs[name]
}

func (d *fakeDevice) Calls(name string) int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.calls[name]
}

func (d *fakeDevice) FailOn(name string, err error) {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.errs[name] = err
}

func (d *fakeDevice) SetAmplitude(amplitude int) {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.amplitude = amplitude
}

func (d *fakeDevice) Configure(_ context.Context, profile types.EncodingProfile, outputPath string) error {
	d.locker.Lock()
	d.profile = profile
	d.outputPath = outputPath
	d.locker.Unlock()
	return d.call("Configure")
}

func (d *fakeDevice) Prepare(context.Context) error { return d.call("Prepare") }
func (d *fakeDevice) Start(context.Context) error   { return d.call("Start") }
func (d *fakeDevice) Stop(context.Context) error    { return d.call("Stop") }
func (d *fakeDevice) Pause(context.Context) error   { return d.call("Pause") }
func (d *fakeDevice) Resume(context.Context) error  { return d.call("Resume") }
func (d *fakeDevice) Release(context.Context) error { return d.call("Release") }

func (d *fakeDevice) MaxAmplitude() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.amplitude
}

type fakeDirectories struct {
	root string
	temp string
}

var _ DirectoryResolver = (*fakeDirectories)(nil)

func newFakeDirectories(t *testing.T) *fakeDirectories {
	base := t.TempDir()
	return &fakeDirectories{
		root: filepath.Join(base, "documents"),
		temp: filepath.Join(base, "tmp"),
	}
}

func (d *fakeDirectories) ResolveDirectory(dir types.Directory) (string, bool) {
	if !dir.IsKnown() {
		return "", false
	}
	return filepath.Join(d.root, string(dir)), true
}

func (d *fakeDirectories) TempDirectory() string {
	return d.temp
}

type fakeFocusManager struct {
	locker sync.Mutex
	calls  []string
	err    error
}

var _ FocusManager = (*fakeFocusManager)(nil)

func (m *fakeFocusManager) record(name string) error {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.calls = append(m.calls, name)
	return m.err
}

func (m *fakeFocusManager) Calls() []string {
	m.locker.Lock()
	defer m.locker.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *fakeFocusManager) RequestAudioFocus(context.Context, *audiofocus.Request) error {
	return m.record("RequestAudioFocus")
}

func (m *fakeFocusManager) AbandonAudioFocusRequest(context.Context, *audiofocus.Request) error {
	return m.record("AbandonAudioFocusRequest")
}

func (m *fakeFocusManager) RequestAudioFocusLegacy(context.Context, audiofocus.Listener, audiofocus.StreamType, audiofocus.Change) error {
	return m.record("RequestAudioFocusLegacy")
}

func (m *fakeFocusManager) AbandonAudioFocus(context.Context, audiofocus.Listener) error {
	return m.record("AbandonAudioFocus")
}

func newTestRecorder(
	t *testing.T,
	device *fakeDevice,
	opts types.RecordOptions,
	modify func(*Config),
) *MediaRecorder {
	t.Helper()
	cfg := Config{
		Options: opts,
		NewDevice: func(context.Context) (Device, error) {
			return device, nil
		},
		Directories:  newFakeDirectories(t),
		Capabilities: StaticCapabilities{Pause: true, FocusRequest: true},
	}
	if modify != nil {
		modify(&cfg)
	}
	r, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unable to create the recorder: %v", err)
	}
	return r
}

package service

import (
	"context"
	"sync"

	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

type fakeRecorder struct {
	locker     sync.Mutex
	opts       types.RecordOptions
	status     types.RecordingStatus
	callbacks  types.Callbacks
	outputFile string
	deleted    int
	stopped    int

	startErr  error
	stopErr   error
	pauseErr  error
	resumeErr error
}

var _ types.Recorder = (*fakeRecorder)(nil)

func (r *fakeRecorder) SetCallbacks(callbacks types.Callbacks) {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.callbacks = callbacks
}

func (r *fakeRecorder) Start(context.Context) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.status = types.RecordingStatusRecording
	return nil
}

func (r *fakeRecorder) Stop(context.Context) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.stopped++
	r.status = types.RecordingStatusNone
	return r.stopErr
}

func (r *fakeRecorder) Pause(context.Context) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.pauseErr != nil {
		return false, r.pauseErr
	}
	if r.status != types.RecordingStatusRecording {
		return false, nil
	}
	r.status = types.RecordingStatusPaused
	return true, nil
}

func (r *fakeRecorder) Resume(context.Context) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.resumeErr != nil {
		return false, r.resumeErr
	}
	switch r.status {
	case types.RecordingStatusPaused, types.RecordingStatusInterrupted:
		r.status = types.RecordingStatusRecording
		return true, nil
	}
	return false, nil
}

func (r *fakeRecorder) Status() types.RecordingStatus {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.status
}

func (r *fakeRecorder) Options() types.RecordOptions {
	return r.opts
}

func (r *fakeRecorder) OutputFile() string {
	return r.outputFile
}

func (r *fakeRecorder) DeleteOutputFile() error {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.deleted++
	return nil
}

func (r *fakeRecorder) Deleted() int {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.deleted
}

type fakePlatform struct {
	canRecord  bool
	occupied   bool
	createErr  error
	payload    string
	payloadOK  bool
	durationMs int
	calls      []string

	prepare   func(*fakeRecorder)
	recorders []*fakeRecorder
}

var _ types.Platform = (*fakePlatform)(nil)

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		canRecord:  true,
		payload:    "BASE64==",
		payloadOK:  true,
		durationMs: 1500,
	}
}

func (p *fakePlatform) CanRecord(context.Context) bool {
	p.calls = append(p.calls, "CanRecord")
	return p.canRecord
}

func (p *fakePlatform) IsMicrophoneOccupied(context.Context) bool {
	p.calls = append(p.calls, "IsMicrophoneOccupied")
	return p.occupied
}

func (p *fakePlatform) CreateRecorder(_ context.Context, opts types.RecordOptions) (types.Recorder, error) {
	p.calls = append(p.calls, "CreateRecorder")
	if p.createErr != nil {
		return nil, p.createErr
	}
	r := &fakeRecorder{
		opts:       opts,
		outputFile: "/tmp/recording-1.aac",
	}
	if p.prepare != nil {
		p.prepare(r)
	}
	p.recorders = append(p.recorders, r)
	return r, nil
}

func (p *fakePlatform) ReadAsPayload(context.Context, string) (string, bool) {
	p.calls = append(p.calls, "ReadAsPayload")
	return p.payload, p.payloadOK
}

func (p *fakePlatform) DurationMs(context.Context, string) int {
	p.calls = append(p.calls, "DurationMs")
	return p.durationMs
}

func (p *fakePlatform) ToReferenceURI(path string) string {
	p.calls = append(p.calls, "ToReferenceURI")
	return "file://" + path
}

type fakePermissions struct {
	calls   int
	granted bool
}

func (p *fakePermissions) HasAudioPermission(context.Context) bool {
	p.calls++
	return p.granted
}

type fakeRequester struct {
	granted bool
	err     error
}

func (r fakeRequester) RequestAudioPermission(context.Context) (bool, error) {
	return r.granted, r.err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

// Service owns at most one recording session at a time and maps every
// failure onto a canonical *types.Error.
type Service struct {
	locker      sync.Mutex
	platform    types.Platform
	permissions types.PermissionChecker
	requester   types.PermissionRequester
	recorder    types.Recorder
	sessionID   uuid.UUID
}

// New returns a Service; requester may be nil.
func New(
	platform types.Platform,
	permissions types.PermissionChecker,
	requester types.PermissionRequester,
) *Service {
	return &Service{
		platform:    platform,
		permissions: permissions,
		requester:   requester,
	}
}

func (s *Service) CanRecord(ctx context.Context) bool {
	return s.platform.CanRecord(ctx)
}

func (s *Service) HasPermission(ctx context.Context) bool {
	return s.permissions.HasAudioPermission(ctx)
}

// RequestPermission returns true right away if the permission is already
// granted, otherwise asks the requester (if any).
func (s *Service) RequestPermission(ctx context.Context) (_ret bool, _err error) {
	logger.Tracef(ctx, "RequestPermission")
	defer func() { logger.Tracef(ctx, "/RequestPermission: %v %v", _ret, _err) }()

	if s.HasPermission(ctx) {
		return true, nil
	}
	if s.requester == nil {
		return false, nil
	}
	granted, err := s.requester.RequestAudioPermission(ctx)
	if err != nil {
		return false, types.NewError(types.ErrorCodeCouldNotQueryPermissionStatus, err)
	}
	return granted, nil
}

func (s *Service) CurrentStatus() types.RecordingStatus {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.recorder == nil {
		return types.RecordingStatusNone
	}
	return s.recorder.Status()
}

// SessionID returns the identifier of the owned session, or uuid.Nil.
func (s *Service) SessionID() uuid.UUID {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.sessionID
}

func (s *Service) sessionCtx(ctx context.Context) context.Context {
	return belt.WithField(ctx, "session_id", s.sessionID.String())
}

func (s *Service) StartRecording(
	ctx context.Context,
	opts types.RecordOptions,
	callbacks types.Callbacks,
) (_err error) {
	logger.Debugf(ctx, "StartRecording(ctx, %#+v)", opts)
	defer func() { logger.Debugf(ctx, "/StartRecording: %v", _err) }()

	if !s.platform.CanRecord(ctx) {
		return types.NewError(types.ErrorCodeDeviceCannotVoiceRecord, nil)
	}
	if !s.permissions.HasAudioPermission(ctx) {
		return types.NewError(types.ErrorCodeMissingPermission, nil)
	}
	if s.platform.IsMicrophoneOccupied(ctx) {
		return types.NewError(types.ErrorCodeMicrophoneBeingUsed, nil)
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.recorder != nil {
		return types.NewError(types.ErrorCodeAlreadyRecording, nil)
	}

	sessionID := uuid.New()
	ctx = belt.WithField(ctx, "session_id", sessionID.String())

	recorder, err := s.platform.CreateRecorder(ctx, opts)
	if err != nil {
		return types.NewError(types.ErrorCodeFailedToRecord, fmt.Errorf("unable to create a recorder: %w", err))
	}
	recorder.SetCallbacks(callbacks)
	if err := recorder.Start(ctx); err != nil {
		discard(ctx, recorder)
		return types.NewError(types.ErrorCodeFailedToRecord, fmt.Errorf("unable to start the recorder: %w", err))
	}

	s.recorder = recorder
	s.sessionID = sessionID
	logger.Infof(ctx, "recording started")
	return nil
}

// discard releases a recorder that never became the owned one.
func discard(ctx context.Context, recorder types.Recorder) {
	if err := recorder.Stop(ctx); err != nil {
		logger.Warnf(ctx, "unable to release the recorder: %v", err)
	}
	if err := recorder.DeleteOutputFile(); err != nil {
		logger.Warnf(ctx, "unable to delete the output file '%s': %v", recorder.OutputFile(), err)
	}
}

// StopRecording finishes the session and builds the artifact. The slot is
// vacated in any case; an inline recording's file is always deleted.
func (s *Service) StopRecording(ctx context.Context) (_ret types.RecordData, _err error) {
	logger.Debugf(ctx, "StopRecording")
	defer func() { logger.Debugf(ctx, "/StopRecording: %#+v %v", _ret, _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.recorder == nil {
		return types.RecordData{}, types.NewError(types.ErrorCodeRecordingHasNotStarted, nil)
	}

	recorder := s.recorder
	ctx = s.sessionCtx(ctx)
	defer func() {
		s.recorder = nil
		s.sessionID = uuid.Nil
	}()

	opts := recorder.Options()
	if !opts.HasDirectory() {
		defer func() {
			if err := recorder.DeleteOutputFile(); err != nil {
				logger.Warnf(ctx, "unable to delete the temporary recording '%s': %v", recorder.OutputFile(), err)
			}
		}()
	}

	if err := recorder.Stop(ctx); err != nil {
		return types.RecordData{}, types.NewError(types.ErrorCodeFailedToFetchRecording, fmt.Errorf("unable to stop the recorder: %w", err))
	}

	path := recorder.OutputFile()
	if path == "" {
		return types.RecordData{}, types.NewError(types.ErrorCodeFailedToFetchRecording, fmt.Errorf("the recorder has no output file"))
	}

	data := types.RecordData{
		MIMEType: types.MIMETypeAAC,
	}
	if opts.HasDirectory() {
		data.URI = s.platform.ToReferenceURI(path)
	} else if payload, ok := s.platform.ReadAsPayload(ctx, path); ok {
		data.Base64 = payload
	}
	data.DurationMs = s.platform.DurationMs(ctx, path)

	if !data.HasContent() || data.DurationMs < 0 {
		logger.Warnf(ctx, "the recording '%s' is empty or corrupt (has content: %v, duration: %dms)", path, data.HasContent(), data.DurationMs)
		return types.RecordData{}, types.NewError(types.ErrorCodeEmptyRecording, nil)
	}

	logger.Infof(ctx, "recording stopped: %dms", data.DurationMs)
	return data, nil
}

func (s *Service) PauseRecording(ctx context.Context) (_ret bool, _err error) {
	logger.Debugf(ctx, "PauseRecording")
	defer func() { logger.Debugf(ctx, "/PauseRecording: %v %v", _ret, _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.recorder == nil {
		return false, types.NewError(types.ErrorCodeRecordingHasNotStarted, nil)
	}
	ok, err := s.recorder.Pause(s.sessionCtx(ctx))
	if err != nil {
		return false, mapSuspendError(err)
	}
	return ok, nil
}

func (s *Service) ResumeRecording(ctx context.Context) (_ret bool, _err error) {
	logger.Debugf(ctx, "ResumeRecording")
	defer func() { logger.Debugf(ctx, "/ResumeRecording: %v %v", _ret, _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.recorder == nil {
		return false, types.NewError(types.ErrorCodeRecordingHasNotStarted, nil)
	}
	ok, err := s.recorder.Resume(s.sessionCtx(ctx))
	if err != nil {
		return false, mapSuspendError(err)
	}
	return ok, nil
}

func mapSuspendError(err error) error {
	if errors.Is(err, types.ErrNotSupportedOSVersion) {
		return types.NewError(types.ErrorCodeNotSupportedOSVersion, err)
	}
	return types.NewError(types.ErrorCodeFailedToRecord, err)
}

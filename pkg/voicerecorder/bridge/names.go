package bridge

const (
	MethodCanDeviceVoiceRecord            = "canDeviceVoiceRecord"
	MethodHasAudioRecordingPermission     = "hasAudioRecordingPermission"
	MethodRequestAudioRecordingPermission = "requestAudioRecordingPermission"
	MethodStartRecording                  = "startRecording"
	MethodStopRecording                   = "stopRecording"
	MethodPauseRecording                  = "pauseRecording"
	MethodResumeRecording                 = "resumeRecording"
	MethodGetCurrentStatus                = "getCurrentStatus"
	MethodRemoveAllListeners              = "removeAllListeners"
)

const (
	EventVoiceRecordingInterrupted       = "voiceRecordingInterrupted"
	EventVoiceRecordingInterruptionEnded = "voiceRecordingInterruptionEnded"
	EventVolumeChanged                   = "volumeChanged"
)

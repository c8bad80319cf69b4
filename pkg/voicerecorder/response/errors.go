package response

import (
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

// MessageCannotRecordOnThisPhone is what older clients expect instead of
// DEVICE_CANNOT_VOICE_RECORD.
const MessageCannotRecordOnThisPhone = "CANNOT_RECORD_ON_THIS_PHONE"

// ErrorPair is how a failure is reported to a runtime.
type ErrorPair struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

func (p ErrorPair) Error() string {
	return p.Message
}

func LegacyMessage(code types.ErrorCode) string {
	if code == types.ErrorCodeDeviceCannotVoiceRecord {
		return MessageCannotRecordOnThisPhone
	}
	return string(code)
}

// ToCanonicalCode accepts either a canonical code or a legacy message.
func ToCanonicalCode(codeOrMessage string) types.ErrorCode {
	if codeOrMessage == MessageCannotRecordOnThisPhone {
		return types.ErrorCodeDeviceCannotVoiceRecord
	}
	return types.ErrorCode(codeOrMessage)
}

// ErrorPairOf reports errors without a canonical code as FAILED_TO_RECORD.
func ErrorPairOf(err error) ErrorPair {
	code, ok := types.CodeOf(err)
	if !ok {
		code = types.ErrorCodeFailedToRecord
	}
	return ErrorPair{
		Code:    code,
		Message: LegacyMessage(code),
	}
}

package response

import (
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

type ValueResponse[T any] struct {
	Value T `json:"value"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func FromBool(value bool) ValueResponse[bool] {
	return ValueResponse[bool]{Value: value}
}

func Success() ValueResponse[bool] {
	return FromBool(true)
}

func Fail() ValueResponse[bool] {
	return FromBool(false)
}

func Data[T any](data T) ValueResponse[T] {
	return ValueResponse[T]{Value: data}
}

func Status(status types.RecordingStatus) StatusResponse {
	return StatusResponse{Status: status.String()}
}

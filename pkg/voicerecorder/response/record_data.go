package response

import (
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

// LegacyRecordData always carries every key; absent values are nulls.
type LegacyRecordData struct {
	RecordDataBase64 *string `json:"recordDataBase64"`
	MsDuration       int     `json:"msDuration"`
	MIMEType         *string `json:"mimeType"`
	URI              *string `json:"uri"`
}

// NormalizedRecordData carries the URI, or else the inline payload, or neither.
type NormalizedRecordData struct {
	MsDuration       int    `json:"msDuration"`
	MIMEType         string `json:"mimeType"`
	URI              string `json:"uri,omitempty"`
	RecordDataBase64 string `json:"recordDataBase64,omitempty"`
}

func ToLegacy(data types.RecordData) LegacyRecordData {
	return LegacyRecordData{
		RecordDataBase64: nonEmpty(data.Base64),
		MsDuration:       data.DurationMs,
		MIMEType:         nonEmpty(data.MIMEType),
		URI:              nonEmpty(data.URI),
	}
}

func ToNormalized(data types.RecordData) NormalizedRecordData {
	result := NormalizedRecordData{
		MsDuration: data.DurationMs,
		MIMEType:   data.MIMEType,
	}
	switch {
	case data.URI != "":
		result.URI = data.URI
	case data.Base64 != "":
		result.RecordDataBase64 = data.Base64
	}
	return result
}

func RecordDataPayload(format Format, data types.RecordData) any {
	switch format {
	case FormatNormalized:
		return ToNormalized(data)
	default:
		return ToLegacy(data)
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

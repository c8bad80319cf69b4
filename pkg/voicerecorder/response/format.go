package response

import (
	"strings"
)

// Format is the shape of the payload returned by StopRecording.
type Format int

const (
	FormatLegacy = Format(iota)
	FormatNormalized
)

func (f Format) String() string {
	switch f {
	case FormatNormalized:
		return "normalized"
	default:
		return "legacy"
	}
}

// ParseFormat never fails: anything but "normalized" is the legacy format.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), FormatNormalized.String()) {
		return FormatNormalized
	}
	return FormatLegacy
}

func (f *Format) Set(s string) error {
	*f = ParseFormat(s)
	return nil
}

func (f Format) Type() string {
	return "response-format"
}

package types

type RecordData struct {
	DurationMs int
	MIMEType   string

	// Exactly one of these is set on a successful stop.
	URI    string
	Base64 string
}

func (d RecordData) HasContent() bool {
	return d.URI != "" || d.Base64 != ""
}

type VolumeSample struct {
	RawLinearLevel float64
	VisualLevel    float64
}

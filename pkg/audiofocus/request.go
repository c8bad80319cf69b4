package audiofocus

// Listener receives focus changes. Implementations used with the legacy
// API must be comparable (e.g. pointers), they are the registration key.
type Listener interface {
	OnAudioFocusChange(Change)
}

type ListenerFunc func(Change)

func (fn ListenerFunc) OnAudioFocusChange(change Change) {
	fn(change)
}

type Attributes struct {
	Usage       Usage
	ContentType ContentType
}

// Request is a structured focus request; the pointer is its identity.
type Request struct {
	Gain       Change
	Attributes Attributes
	Listener   Listener
}

func NewRequest(
	gain Change,
	attrs Attributes,
	listener Listener,
) *Request {
	return &Request{
		Gain:       gain,
		Attributes: attrs,
		Listener:   listener,
	}
}

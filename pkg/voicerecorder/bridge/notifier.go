package bridge

// Notifier delivers named events to the runtime. It is called from
// background goroutines and must not block for long.
type Notifier interface {
	Notify(event string, data any)
}

type NotifierFunc func(event string, data any)

func (fn NotifierFunc) Notify(event string, data any) {
	fn(event, data)
}

type VolumeChanged struct {
	Volume float64 `json:"volume"`
}

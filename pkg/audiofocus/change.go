package audiofocus

import (
	"fmt"
)

type Change int

const (
	ChangeUndefined = Change(iota)
	ChangeGain
	ChangeGainTransient
	ChangeGainTransientMayDuck
	ChangeLoss
	ChangeLossTransient
	ChangeLossTransientCanDuck
)

func (c Change) String() string {
	switch c {
	case ChangeUndefined:
		return "undefined"
	case ChangeGain:
		return "gain"
	case ChangeGainTransient:
		return "gain_transient"
	case ChangeGainTransientMayDuck:
		return "gain_transient_may_duck"
	case ChangeLoss:
		return "loss"
	case ChangeLossTransient:
		return "loss_transient"
	case ChangeLossTransientCanDuck:
		return "loss_transient_can_duck"
	default:
		return fmt.Sprintf("unknown_change_%d", int(c))
	}
}

func (c Change) IsLoss() bool {
	switch c {
	case ChangeLoss, ChangeLossTransient, ChangeLossTransientCanDuck:
		return true
	default:
		return false
	}
}

func (c Change) IsGain() bool {
	switch c {
	case ChangeGain, ChangeGainTransient, ChangeGainTransientMayDuck:
		return true
	default:
		return false
	}
}

// lossFor returns what the previous holder observes when somebody
// requests the focus with the given gain.
func lossFor(gain Change) Change {
	switch gain {
	case ChangeGainTransient:
		return ChangeLossTransient
	case ChangeGainTransientMayDuck:
		return ChangeLossTransientCanDuck
	default:
		return ChangeLoss
	}
}

type Usage int

const (
	UsageUnknown = Usage(iota)
	UsageMedia
	UsageVoiceCommunication
	UsageAlarm
	UsageNotification
)

type ContentType int

const (
	ContentTypeUnknown = ContentType(iota)
	ContentTypeSpeech
	ContentTypeMusic
	ContentTypeSonification
)

type StreamType int

const (
	StreamTypeMusic = StreamType(iota)
	StreamTypeVoiceCall
	StreamTypeRing
	StreamTypeAlarm
)

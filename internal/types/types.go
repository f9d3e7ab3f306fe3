package types

import "strings"

// Depth is the user-selected verbosity tier of generated answers.
type Depth string

const (
	DepthShort  Depth = "short"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

// ParseDepth maps a stored or user-supplied value to a Depth, defaulting to deep.
func ParseDepth(s string) Depth {
	switch Depth(strings.ToLower(strings.TrimSpace(s))) {
	case DepthShort:
		return DepthShort
	case DepthMedium, "expanded":
		return DepthMedium
	default:
		return DepthDeep
	}
}

// Event is an inbound platform event. The concrete types are Command,
// TextMessage, VoiceMessage, ButtonTap and Unsupported.
type Event interface {
	Chat() int64
	event()
}

// Origin identifies where an event came from.
type Origin struct {
	ChatID   int64
	UserID   int64
	Username string
}

func (o Origin) Chat() int64 { return o.ChatID }
func (Origin) event()         {}

// Command is a slash command such as /start or /pay.
type Command struct {
	Origin
	Name string
	Args string
}

type TextMessage struct {
	Origin
	Text string
}

type VoiceMessage struct {
	Origin
	FileID   string
	Duration int
}

// ButtonTap is an inline keyboard callback.
type ButtonTap struct {
	Origin
	CallbackID string
	MessageID  int
	Data       string
}

// Unsupported covers media the bot acknowledges but does not process.
type Unsupported struct {
	Origin
	Kind string
}

package domain

import "time"

type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Facing selects the physical camera a stream is bound to.
type Facing string

const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// Opposite returns the other camera.
func (f Facing) Opposite() Facing {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}

// Constraint returns the facingMode name used by camera APIs ("user" or "environment").
func (f Facing) Constraint() string {
	if f == FacingBack {
		return "environment"
	}
	return "user"
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short, transient user-facing message.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Utterance is a piece of text to be synthesized and played.
type Utterance struct {
	Text   string
	Lang   string
	Rate   float64
	Volume float64
}

type Timestamp = time.Time

package domain

import "strings"

// Message is one entry of the chat timeline (user or assistant).
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	CreatedAt Timestamp

	// Pending is true while an assistant entry is still receiving stream deltas.
	Pending bool
}

// SanitizeMessages drops assistant entries left without content (typically by
// a stopped stream) and marks the remaining ones as complete.
// The input slice is not modified.
func SanitizeMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleAssistant && strings.TrimSpace(m.Content) == "" {
			continue
		}
		m.Pending = false
		out = append(out, m)
	}
	return out
}

// LastMessage returns the most recent entry, if any.
func LastMessage(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

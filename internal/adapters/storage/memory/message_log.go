package memory

import (
	"sync"

	"github.com/PabloGalante/vitalito/internal/domain"
)

// MessageLog is an ordered, concurrency-safe chat timeline.
type MessageLog struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

func (l *MessageLog) Append(msg domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

// Messages returns a copy of the timeline.
func (l *MessageLog) Messages() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Update applies fn to the message with the given id. It reports whether the
// message was found.
func (l *MessageLog) Update(id domain.MessageID, fn func(*domain.Message)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			fn(&l.messages[i])
			return true
		}
	}
	return false
}

// Sanitize applies domain.SanitizeMessages to the timeline.
// Remove deletes the message with the given id. It reports whether the
// message was found.
func (l *MessageLog) Remove(id domain.MessageID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return true
		}
	}
	return false
}

func (l *MessageLog) Sanitize() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = domain.SanitizeMessages(l.messages)
}

func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

package readaloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

const (
	Lang   = "es-ES"
	Rate   = 1.0
	Volume = 1.0
)

const (
	msgNothingToRead = "No hay un mensaje de respuesta para leer."
	msgSpeechFailed  = "No se pudo reproducir la respuesta."
)

var ErrNothingToRead = errors.New("last message is not an assistant reply")

// Reader reads the latest assistant reply aloud.
type Reader struct {
	speaker  domain.Speaker
	messages domain.MessageLog
	notifier domain.Notifier
}

func NewReader(speaker domain.Speaker, messages domain.MessageLog, notifier domain.Notifier) *Reader {
	return &Reader{speaker: speaker, messages: messages, notifier: notifier}
}

// ReadLast speaks the last message if it was written by the assistant.
func (r *Reader) ReadLast(ctx context.Context) error {
	last, ok := domain.LastMessage(r.messages.Messages())
	if !ok || last.Role != domain.RoleAssistant || strings.TrimSpace(last.Content) == "" {
		r.notifier.Notify(domain.Notice{Level: domain.NoticeError, Text: msgNothingToRead})
		return ErrNothingToRead
	}

	err := r.speaker.Speak(ctx, domain.Utterance{
		Text:   last.Content,
		Lang:   Lang,
		Rate:   Rate,
		Volume: Volume,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("speech playback failed", "message_id", last.ID, "error", err)
		r.notifier.Notify(domain.Notice{Level: domain.NoticeError, Text: msgSpeechFailed})
		return fmt.Errorf("speak reply: %w", err)
	}
	return nil
}

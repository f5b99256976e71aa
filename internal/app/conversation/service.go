package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

var ErrStreaming = errors.New("a response is already streaming")

const msgStreamFailed = "Error al obtener la respuesta."

// Service is the chat host: it owns the timeline and streams assistant
// replies from a ChatStreamer. It implements domain.Responder and
// domain.MessageLog.
type Service struct {
	streamer domain.ChatStreamer
	log      *memory.MessageLog
	notifier domain.Notifier
	now      func() time.Time

	mu        sync.Mutex
	streaming bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewService(streamer domain.ChatStreamer, notifier domain.Notifier) *Service {
	if notifier == nil {
		notifier = domain.NotifierFunc(func(domain.Notice) {})
	}
	return &Service{
		streamer: streamer,
		log:      memory.NewMessageLog(),
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit appends the user message plus a pending assistant entry and starts
// streaming the reply in the background.
func (s *Service) Submit(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return ErrStreaming
	}

	now := s.now()
	userMsg := domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	s.log.Append(userMsg)
	history := s.log.Messages()

	replyID := domain.MessageID(uuid.NewString())
	s.log.Append(domain.Message{
		ID:        replyID,
		Role:      domain.RoleAssistant,
		CreatedAt: now,
		Pending:   true,
	})

	// the stream outlives the caller's context; Stop cancels it
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.streaming = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("reply_id", replyID)
	log.Info("sending message", "history", len(history))

	go s.stream(streamCtx, log, history, replyID, done)
	return nil
}

func (s *Service) stream(
	ctx context.Context,
	log *slog.Logger,
	history []domain.Message,
	replyID domain.MessageID,
	done chan struct{},
) {
	defer close(done)

	err := s.streamer.StreamChat(ctx, history, func(delta string) {
		s.log.Update(replyID, func(m *domain.Message) { m.Content += delta })
	})

	var blank bool
	s.log.Update(replyID, func(m *domain.Message) {
		m.Pending = false
		blank = strings.TrimSpace(m.Content) == ""
	})
	// a reply that never received text must not be read aloud or sent upstream
	if blank {
		s.log.Remove(replyID)
	}

	switch {
	case err == nil:
		log.Info("stream completed")
	case errors.Is(err, context.Canceled):
		log.Info("stream stopped")
	default:
		log.Error("stream failed", "error", err)
		s.notifier.Notify(domain.Notice{Level: domain.NoticeError, Text: msgStreamFailed})
	}

	s.mu.Lock()
	s.streaming = false
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()
}

// Stop cancels the in-flight stream, if any.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Service) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Wait blocks until the current stream (if any) has finished.
func (s *Service) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Service) Append(msg domain.Message) {
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.log.Append(msg)
}

func (s *Service) Messages() []domain.Message {
	return s.log.Messages()
}

func (s *Service) Sanitize() {
	s.log.Sanitize()
}

package httpadapter

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/PabloGalante/vitalito/internal/adapters/llm"
	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

const maxUploadBytes = 10 << 20

// Server is the local mock of the chat backend. It answers with canned
// replies from llm.MockLLM and never calls a model.
type Server struct {
	mock       *llm.MockLLM
	chunkDelay time.Duration
}

type ServerOption func(*Server)

// WithChunkDelay pauses between streamed chunks, to make Stop observable.
func WithChunkDelay(d time.Duration) ServerOption {
	return func(s *Server) { s.chunkDelay = d }
}

func NewServer(mock *llm.MockLLM, opts ...ServerOption) http.Handler {
	s := &Server{mock: mock}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST "+chatPath, s.handleChat)
	mux.HandleFunc("POST "+uploadPath, s.handleUploadImage)

	return chainMiddlewares(mux, withCORS, withLogging)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(w, "messages is required")
		return
	}

	history := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, domain.Message{Role: domain.Role(m.Role), Content: m.Content})
	}

	log := observability.LoggerFromContext(r.Context())
	log.Debug("chat request", "conversation", llm.FormatConversation(history))

	reply := s.mock.Reply(history)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("x-vercel-ai-data-stream", "v1")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for _, chunk := range s.mock.Chunks(reply) {
		select {
		case <-r.Context().Done():
			log.Info("client went away mid-stream")
			return
		default:
		}

		encoded, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "0:%s\n", encoded)
		if flusher != nil {
			flusher.Flush()
		}
		if s.chunkDelay > 0 {
			time.Sleep(s.chunkDelay)
		}
	}

	fmt.Fprint(w, `e:{"finishReason":"stop","usage":{"promptTokens":0,"completionTokens":0},"isContinued":false}`+"\n")
	fmt.Fprint(w, `d:{"finishReason":"stop","usage":{"promptTokens":0,"completionTokens":0}}`+"\n")
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		badRequest(w, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		badRequest(w, "image could not be decoded")
		return
	}

	observability.LoggerFromContext(r.Context()).Info("image received",
		"filename", header.Filename,
		"size", header.Size,
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height,
	)

	writeJSON(w, http.StatusOK, uploadResponse{Response: ptr(s.mock.DescribeImage(format, cfg.Width, cfg.Height))})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

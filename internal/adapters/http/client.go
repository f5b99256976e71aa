package httpadapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/PabloGalante/vitalito/internal/domain"
)

const (
	chatPath   = "/api/chat"
	uploadPath = "/api/chat/upload-image"

	uploadField = "image"
)

// ErrEmptyResponse means the backend answered 2xx without a response text.
var ErrEmptyResponse = errors.New("upload response has no text")

// UploadError is returned for any non-2xx upload answer.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}

// Client talks to the chat backend: streamed chat replies and image uploads.
// It implements domain.ChatStreamer and domain.ImageUploader.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
	}
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type uploadResponse struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}

// ─────────────────────────────────────────────
// Image upload
// ─────────────────────────────────────────────

// UploadImage posts data as the multipart field "image" and returns the
// backend's "response" text.
func (c *Client) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filename))
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("post image: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the body is informative only on this path
		return "", &UploadError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode upload response: %w", decodeErr)
	}
	if out.Response == nil || *out.Response == "" {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, out.Error)
		}
		return "", ErrEmptyResponse
	}
	return *out.Response, nil
}

// ─────────────────────────────────────────────
// Chat stream
// ─────────────────────────────────────────────

// StreamChat posts the history and feeds every text delta of the data
// stream to onDelta.
func (c *Client) StreamChat(ctx context.Context, history []domain.Message, onDelta func(string)) error {
	payload := chatRequest{Messages: make([]chatMessage, 0, len(history))}
	for _, m := range history {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath+"?protocol=data", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return ReadDataStream(resp.Body, onDelta)
}

// StreamError is an error part ("3:") sent inside the data stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return "stream error: " + e.Message }

// ReadDataStream parses the line-oriented data stream protocol:
// `0:"text"` deltas, `3:"message"` errors, `e:`/`d:` finish parts.
// Unknown part types are skipped.
func ReadDataStream(r io.Reader, onDelta func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		kind, value, ok := strings.Cut(line, ":")
		if !ok {
			return fmt.Errorf("malformed stream line %q", line)
		}

		switch kind {
		case "0":
			var text string
			if err := json.Unmarshal([]byte(value), &text); err != nil {
				return fmt.Errorf("decode text part: %w", err)
			}
			onDelta(text)
		case "3":
			var msg string
			if err := json.Unmarshal([]byte(value), &msg); err != nil {
				msg = value
			}
			return &StreamError{Message: msg}
		case "d":
			return nil
		}
	}
	return sc.Err()
}

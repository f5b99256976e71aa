// Package capture implements the camera capture session as a headless state
// machine: open, preview, switch camera, capture-and-upload, cancel.
// A render adapter projects Snapshot() into whatever preview UI it has.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

// Filename is the name the captured frame is uploaded under.
const Filename = "captured-image.jpg"

const jpegQuality = 92

const (
	msgCameraUnavailable = "La cámara no está disponible en este dispositivo."
	msgCameraAccess      = "Error al acceder a la cámara."
	msgCameraSwitch      = "Error al cambiar de cámara."
	msgCameraBusy        = "La cámara ya está abierta."
	msgFrameFailed       = "Error al capturar la imagen."
	msgUploadOK          = "Imagen enviada exitosamente"
	msgUploadFailed      = "Error al enviar la imagen."
)

var (
	ErrSessionActive = errors.New("capture session already open")
	ErrInvalidState  = errors.New("invalid capture state for this operation")
)

// Snapshot is the declarative view of a session.
type Snapshot struct {
	ID       string
	State    domain.CaptureState
	Facing   domain.Facing
	StreamID string
}

// Result describes a completed capture.
type Result struct {
	Width  int
	Height int
	Bytes  int
	Reply  string
}

type Session struct {
	provider domain.MediaCaptureProvider
	uploader domain.ImageUploader
	messages domain.MessageLog
	notifier domain.Notifier
	now      func() time.Time

	// op serializes transitions; mu guards the fields below and is never held across I/O.
	op sync.Mutex

	mu       sync.Mutex
	id       string
	state    domain.CaptureState
	facing   domain.Facing
	stream   domain.Stream
	observer func(Snapshot)
}

func NewSession(
	provider domain.MediaCaptureProvider,
	uploader domain.ImageUploader,
	messages domain.MessageLog,
	notifier domain.Notifier,
) *Session {
	if notifier == nil {
		notifier = domain.NotifierFunc(func(domain.Notice) {})
	}
	return &Session{
		provider: provider,
		uploader: uploader,
		messages: messages,
		notifier: notifier,
		now:      time.Now,
		state:    domain.CaptureClosed,
		facing:   domain.FacingFront,
	}
}

// Observe registers fn to be called after every state change.
func (s *Session) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) State() domain.CaptureState {
	return s.Snapshot().State
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{ID: s.id, State: s.state, Facing: s.facing}
	if s.stream != nil {
		snap.StreamID = s.stream.ID()
	}
	return snap
}

func (s *Session) setState(st domain.CaptureState) {
	s.mu.Lock()
	s.state = st
	snap := s.snapshotLocked()
	obs := s.observer
	s.mu.Unlock()

	if obs != nil {
		obs(snap)
	}
}

func (s *Session) setStream(st domain.Stream) {
	s.mu.Lock()
	s.stream = st
	s.mu.Unlock()
}

// begin moves from `from` to `to` or fails with ErrInvalidState.
func (s *Session) begin(from, to domain.CaptureState) error {
	s.mu.Lock()
	if s.state != from {
		cur := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, cur)
	}
	s.mu.Unlock()
	s.setState(to)
	return nil
}

func (s *Session) ctx(ctx context.Context) context.Context {
	s.mu.Lock()
	id := s.id
	s.mu.Unlock()
	return observability.WithCaptureID(ctx, id)
}

func (s *Session) notify(level domain.NoticeLevel, text string) {
	s.notifier.Notify(domain.Notice{Level: level, Text: text})
}

// Open acquires the default (front) camera and enters Previewing.
// Only one session may be open at a time.
func (s *Session) Open(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	if s.state != domain.CaptureClosed {
		s.mu.Unlock()
		s.notify(domain.NoticeInfo, msgCameraBusy)
		return ErrSessionActive
	}
	s.mu.Unlock()

	if !s.provider.Available() {
		s.notify(domain.NoticeError, msgCameraUnavailable)
		return domain.ErrCameraUnavailable
	}

	s.mu.Lock()
	s.id = uuid.NewString()
	s.facing = domain.FacingFront
	s.mu.Unlock()
	s.setState(domain.CaptureOpening)

	ctx = s.ctx(ctx)
	log := observability.LoggerFromContext(ctx)

	stream, err := s.provider.Acquire(ctx, domain.FacingFront)
	if err != nil {
		log.Error("camera acquisition failed", "facing", domain.FacingFront, "error", err)
		s.notify(domain.NoticeError, msgCameraAccess)
		s.setState(domain.CaptureClosed)
		return fmt.Errorf("acquire %s camera: %w", domain.FacingFront, err)
	}

	s.setStream(stream)
	s.setState(domain.CapturePreviewing)
	log.Info("capture session opened", "stream_id", stream.ID())
	return nil
}

// SwitchCamera stops the current stream, flips the facing and acquires the
// other camera. If that fails the session is closed.
func (s *Session) SwitchCamera(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	if err := s.begin(domain.CapturePreviewing, domain.CaptureSwitchingCamera); err != nil {
		return err
	}

	ctx = s.ctx(ctx)
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	old := s.stream
	s.stream = nil
	s.facing = s.facing.Opposite()
	facing := s.facing
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	stream, err := s.provider.Acquire(ctx, facing)
	if err != nil {
		log.Error("camera switch failed", "facing", facing, "error", err)
		s.notify(domain.NoticeError, msgCameraSwitch)
		s.release()
		return fmt.Errorf("acquire %s camera: %w", facing, err)
	}

	s.setStream(stream)
	s.setState(domain.CapturePreviewing)
	log.Info("camera switched", "facing", facing, "stream_id", stream.ID())
	return nil
}

// Capture grabs the current frame, uploads it as JPEG and appends the reply
// as an assistant message. The session is closed afterwards whatever the outcome.
func (s *Session) Capture(ctx context.Context) (*Result, error) {
	s.op.Lock()
	defer s.op.Unlock()

	if err := s.begin(domain.CapturePreviewing, domain.CaptureCapturing); err != nil {
		return nil, err
	}
	defer s.release()

	ctx = s.ctx(ctx)
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		log.Error("frame capture failed", "error", err)
		s.notify(domain.NoticeError, msgFrameFailed)
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	raster := Rasterize(frame)
	data, err := EncodeJPEG(raster)
	if err != nil {
		log.Error("jpeg encoding failed", "error", err)
		s.notify(domain.NoticeError, msgFrameFailed)
		return nil, err
	}

	res := &Result{
		Width:  raster.Bounds().Dx(),
		Height: raster.Bounds().Dy(),
		Bytes:  len(data),
	}

	reply, err := s.uploader.UploadImage(ctx, data, Filename)
	if err != nil {
		log.Error("image upload failed", "bytes", len(data), "error", err)
		s.notify(domain.NoticeError, msgUploadFailed)
		return res, fmt.Errorf("upload image: %w", err)
	}

	res.Reply = reply
	s.messages.Append(domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	})
	s.notify(domain.NoticeSuccess, msgUploadOK)
	log.Info("image captured and sent", "width", res.Width, "height", res.Height, "bytes", res.Bytes)

	return res, nil
}

// Cancel closes the preview without capturing.
func (s *Session) Cancel() error {
	s.op.Lock()
	defer s.op.Unlock()

	if err := s.begin(domain.CapturePreviewing, domain.CaptureCancelling); err != nil {
		return err
	}
	s.release()
	return nil
}

// Shutdown releases the camera whatever state the session is in. It waits
// for an in-flight transition to finish.
func (s *Session) Shutdown() {
	s.op.Lock()
	defer s.op.Unlock()
	s.release()
}

// release stops every track and closes the session. The stream is stopped
// before the state becomes Closed.
func (s *Session) release() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	s.setState(domain.CaptureClosed)
}

// Rasterize draws img onto an RGBA surface of the same native size with its
// origin at (0, 0).
func Rasterize(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

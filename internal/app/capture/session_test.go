package capture_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	"github.com/PabloGalante/vitalito/internal/app/capture"
	"github.com/PabloGalante/vitalito/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

type fakeProvider struct {
	mu        sync.Mutex
	available bool
	failOn    map[domain.Facing]error
	width     int
	height    int
	acquired  []domain.Facing
	streams   []*fakeStream
	maxActive int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{available: true, width: 64, height: 48, failOn: map[domain.Facing]error{}}
}

func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) Acquire(_ context.Context, facing domain.Facing) (domain.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acquired = append(p.acquired, facing)
	if err := p.failOn[facing]; err != nil {
		return nil, err
	}
	st := &fakeStream{
		id:     fmt.Sprintf("stream-%d", len(p.streams)+1),
		facing: facing,
		w:      p.width,
		h:      p.height,
		active: true,
	}
	p.streams = append(p.streams, st)
	if n := p.activeLocked(); n > p.maxActive {
		p.maxActive = n
	}
	return st, nil
}

func (p *fakeProvider) activeLocked() int {
	n := 0
	for _, s := range p.streams {
		if s.Active() {
			n++
		}
	}
	return n
}

func (p *fakeProvider) active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeLocked()
}

type fakeStream struct {
	mu       sync.Mutex
	id       string
	facing   domain.Facing
	w, h     int
	active   bool
	frameErr error
}

func (s *fakeStream) ID() string            { return s.id }
func (s *fakeStream) Facing() domain.Facing { return s.facing }

func (s *fakeStream) Frame(context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, domain.ErrStreamStopped
	}
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	// non-zero origin, like a cropped sensor readout
	img := image.NewRGBA(image.Rect(10, 10, 10+s.w, 10+s.h))
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img, nil
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *fakeStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

type fakeUploader struct {
	reply    string
	err      error
	calls    int
	filename string
	data     []byte
}

func (u *fakeUploader) UploadImage(_ context.Context, data []byte, filename string) (string, error) {
	u.calls++
	u.filename = filename
	u.data = data
	return u.reply, u.err
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *noticeRecorder) Notify(notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeRecorder) last() domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return domain.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

type fixture struct {
	provider *fakeProvider
	uploader *fakeUploader
	log      *memory.MessageLog
	notices  *noticeRecorder
	session  *capture.Session
}

func newFixture() *fixture {
	f := &fixture{
		provider: newFakeProvider(),
		uploader: &fakeUploader{reply: "ok"},
		log:      memory.NewMessageLog(),
		notices:  &noticeRecorder{},
	}
	f.session = capture.NewSession(f.provider, f.uploader, f.log, f.notices)
	return f
}

// ─────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────

func TestOpenEntersPreviewingWithFrontCamera(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.session.Open(context.Background()))

	snap := f.session.Snapshot()
	assert.Equal(t, domain.CapturePreviewing, snap.State)
	assert.Equal(t, domain.FacingFront, snap.Facing)
	assert.Equal(t, "stream-1", snap.StreamID)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 1, f.provider.active())
}

func TestOpenWithoutCameraStaysClosed(t *testing.T) {
	f := newFixture()
	f.provider.available = false

	err := f.session.Open(context.Background())

	assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, domain.NoticeError, f.notices.last().Level)
	assert.Empty(t, f.provider.acquired)
}

func TestOpenAcquisitionFailureCloses(t *testing.T) {
	f := newFixture()
	denied := errors.New("permission denied")
	f.provider.failOn[domain.FacingFront] = denied

	err := f.session.Open(context.Background())

	assert.ErrorIs(t, err, denied)
	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, "Error al acceder a la cámara.", f.notices.last().Text)
}

func TestOpenTwiceIsRejected(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))

	err := f.session.Open(context.Background())

	assert.ErrorIs(t, err, capture.ErrSessionActive)
	assert.Len(t, f.provider.acquired, 1)
	assert.Equal(t, domain.CapturePreviewing, f.session.State())
}

func TestCaptureSuccessAppendsReplyAndCloses(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))

	res, err := f.session.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Reply)
	assert.Equal(t, capture.Filename, f.uploader.filename)

	msgs := f.log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "ok", msgs[0].Content)

	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, 0, f.provider.active())
	assert.Equal(t, domain.NoticeSuccess, f.notices.last().Level)
}

func TestCaptureKeepsNativeResolution(t *testing.T) {
	f := newFixture()
	f.provider.width, f.provider.height = 321, 123
	require.NoError(t, f.session.Open(context.Background()))

	res, err := f.session.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 321, res.Width)
	assert.Equal(t, 123, res.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(f.uploader.data))
	require.NoError(t, err)
	assert.Equal(t, 321, decoded.Bounds().Dx())
	assert.Equal(t, 123, decoded.Bounds().Dy())
}

func TestCaptureUploadFailure(t *testing.T) {
	f := newFixture()
	f.uploader.err = errors.New("status 500")
	require.NoError(t, f.session.Open(context.Background()))

	_, err := f.session.Capture(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, f.log.Len())
	assert.Equal(t, "Error al enviar la imagen.", f.notices.last().Text)
	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, 0, f.provider.active())
}

func TestCaptureFrameFailureSkipsUpload(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))
	f.provider.streams[0].frameErr = errors.New("no signal")

	_, err := f.session.Capture(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, f.uploader.calls)
	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, 0, f.provider.active())
}

func TestSwitchCameraTogglesFacing(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))

	require.NoError(t, f.session.SwitchCamera(context.Background()))
	assert.Equal(t, domain.FacingBack, f.session.Snapshot().Facing)
	assert.Equal(t, "stream-2", f.session.Snapshot().StreamID)

	require.NoError(t, f.session.SwitchCamera(context.Background()))
	assert.Equal(t, domain.FacingFront, f.session.Snapshot().Facing)

	assert.Equal(t, []domain.Facing{domain.FacingFront, domain.FacingBack, domain.FacingFront}, f.provider.acquired)
	assert.Equal(t, 1, f.provider.maxActive, "never two live streams")
	assert.Equal(t, 1, f.provider.active())
}

func TestSwitchCameraFailureClosesSession(t *testing.T) {
	f := newFixture()
	f.provider.failOn[domain.FacingBack] = errors.New("device busy")
	require.NoError(t, f.session.Open(context.Background()))

	err := f.session.SwitchCamera(context.Background())

	require.Error(t, err)
	snap := f.session.Snapshot()
	assert.Equal(t, domain.CaptureClosed, snap.State)
	assert.Empty(t, snap.StreamID)
	assert.Equal(t, 0, f.provider.active())
	assert.Equal(t, "Error al cambiar de cámara.", f.notices.last().Text)

	// the next session starts again from the front camera
	delete(f.provider.failOn, domain.FacingBack)
	require.NoError(t, f.session.Open(context.Background()))
	assert.Equal(t, domain.FacingFront, f.session.Snapshot().Facing)
}

func TestCancelReleasesWithoutUpload(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))

	require.NoError(t, f.session.Cancel())

	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, 0, f.provider.active())
	assert.Equal(t, 0, f.uploader.calls)
}

func TestTransitionsRequirePreviewing(t *testing.T) {
	f := newFixture()

	assert.ErrorIs(t, f.session.SwitchCamera(context.Background()), capture.ErrInvalidState)
	assert.ErrorIs(t, f.session.Cancel(), capture.ErrInvalidState)
	_, err := f.session.Capture(context.Background())
	assert.ErrorIs(t, err, capture.ErrInvalidState)
}

func TestShutdownReleasesOpenSession(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.session.Open(context.Background()))

	f.session.Shutdown()

	assert.Equal(t, domain.CaptureClosed, f.session.State())
	assert.Equal(t, 0, f.provider.active())
}

func TestObserverSeesEveryState(t *testing.T) {
	f := newFixture()
	var states []domain.CaptureState
	f.session.Observe(func(s capture.Snapshot) { states = append(states, s.State) })

	require.NoError(t, f.session.Open(context.Background()))
	require.NoError(t, f.session.SwitchCamera(context.Background()))
	_, err := f.session.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.CaptureState{
		domain.CaptureOpening,
		domain.CapturePreviewing,
		domain.CaptureSwitchingCamera,
		domain.CapturePreviewing,
		domain.CaptureCapturing,
		domain.CaptureClosed,
	}, states)
}

func TestRasterizeNormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 7, 25, 17))
	src.Set(5, 7, color.RGBA{R: 255, A: 255})

	dst := capture.Rasterize(src)

	assert.Equal(t, image.Rect(0, 0, 20, 10), dst.Bounds())
	r, _, _, _ := dst.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

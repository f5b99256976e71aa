package media

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/PabloGalante/vitalito/internal/domain"
)

// SyntheticProvider hands out test-pattern cameras. It is the default
// backend when no capture device is configured.
type SyntheticProvider struct {
	width, height int

	mu     sync.Mutex
	active int
}

func NewSyntheticProvider(width, height int) *SyntheticProvider {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	return &SyntheticProvider{width: width, height: height}
}

func (p *SyntheticProvider) Available() bool { return true }

func (p *SyntheticProvider) Acquire(ctx context.Context, facing domain.Facing) (domain.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.active++
	p.mu.Unlock()

	s := &syntheticStream{
		id:     uuid.NewString(),
		facing: facing,
		frame:  testPattern(p.width, p.height, facing),
		onStop: func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
		},
	}
	s.live.Store(true)
	return s, nil
}

// Active reports how many streams are currently held.
func (p *SyntheticProvider) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

type syntheticStream struct {
	id     string
	facing domain.Facing
	frame  *image.RGBA
	live   atomic.Bool
	onStop func()
}

func (s *syntheticStream) ID() string            { return s.id }
func (s *syntheticStream) Facing() domain.Facing { return s.facing }
func (s *syntheticStream) Active() bool          { return s.live.Load() }

func (s *syntheticStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.live.Load() {
		return nil, domain.ErrStreamStopped
	}
	return s.frame, nil
}

func (s *syntheticStream) Stop() {
	if s.live.CompareAndSwap(true, false) {
		s.onStop()
	}
}

// testPattern draws vertical bars tinted per facing so the two cameras are
// distinguishable in a capture.
func testPattern(w, h int, facing domain.Facing) *image.RGBA {
	bars := []color.RGBA{
		{R: 235, G: 235, B: 235, A: 255},
		{R: 235, G: 235, B: 16, A: 255},
		{R: 16, G: 235, B: 235, A: 255},
		{R: 16, G: 235, B: 16, A: 255},
		{R: 235, G: 16, B: 235, A: 255},
		{R: 235, G: 16, B: 16, A: 255},
		{R: 16, G: 16, B: 235, A: 255},
	}
	tint := uint8(0)
	if facing == domain.FacingBack {
		tint = 60
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		c := bars[x*len(bars)/w]
		c.R -= min(c.R, tint)
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

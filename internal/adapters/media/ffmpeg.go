package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

// FFmpegProvider grabs frames from V4L2 devices through the ffmpeg binary.
// Each facing maps to one device node.
type FFmpegProvider struct {
	bin     string
	devices map[domain.Facing]string
}

func NewFFmpegProvider(frontDevice, backDevice string) *FFmpegProvider {
	return &FFmpegProvider{
		bin: "ffmpeg",
		devices: map[domain.Facing]string{
			domain.FacingFront: frontDevice,
			domain.FacingBack:  backDevice,
		},
	}
}

func (p *FFmpegProvider) Available() bool {
	_, err := exec.LookPath(p.bin)
	return err == nil
}

func (p *FFmpegProvider) Acquire(ctx context.Context, facing domain.Facing) (domain.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dev := p.devices[facing]
	if dev == "" {
		return nil, fmt.Errorf("no device configured for %s camera", facing)
	}
	if _, err := os.Stat(dev); err != nil {
		return nil, fmt.Errorf("open %s camera %s: %w", facing, dev, err)
	}

	s := &ffmpegStream{
		id:     uuid.NewString(),
		facing: facing,
		bin:    p.bin,
		device: dev,
	}
	s.live.Store(true)

	observability.Logger().Debug("camera acquired", "facing", facing, "device", dev, "stream_id", s.id)
	return s, nil
}

type ffmpegStream struct {
	id     string
	facing domain.Facing
	bin    string
	device string
	live   atomic.Bool
}

func (s *ffmpegStream) ID() string            { return s.id }
func (s *ffmpegStream) Facing() domain.Facing { return s.facing }
func (s *ffmpegStream) Active() bool          { return s.live.Load() }

func (s *ffmpegStream) Stop() { s.live.Store(false) }

// Frame grabs a single frame at the device's native resolution.
func (s *ffmpegStream) Frame(ctx context.Context) (image.Image, error) {
	if !s.live.Load() {
		return nil, domain.ErrStreamStopped
	}

	cmd := exec.CommandContext(ctx, s.bin, frameArgs(s.device)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ffmpeg grab from %s: %w: %s", s.device, err, strings.TrimSpace(stderr.String()))
	}
	if !s.live.Load() {
		return nil, domain.ErrStreamStopped
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func frameArgs(device string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-i", device,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// IsNotFound reports whether err came from a missing device node.
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

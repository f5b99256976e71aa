package domain

import (
	"context"
	"errors"
	"image"
)

// CaptureState is the state of a camera capture session.
type CaptureState int

const (
	CaptureClosed CaptureState = iota
	CaptureOpening
	CapturePreviewing
	CaptureCapturing
	CaptureSwitchingCamera
	CaptureCancelling
)

func (s CaptureState) String() string {
	switch s {
	case CaptureClosed:
		return "closed"
	case CaptureOpening:
		return "opening"
	case CapturePreviewing:
		return "previewing"
	case CaptureCapturing:
		return "capturing"
	case CaptureSwitchingCamera:
		return "switching_camera"
	case CaptureCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

var (
	// ErrCameraUnavailable means the platform exposes no camera capability at all.
	ErrCameraUnavailable = errors.New("camera not available")
	// ErrStreamStopped is returned when reading a frame from a released stream.
	ErrStreamStopped = errors.New("stream stopped")
)

// Stream is an owned handle to the track(s) of one acquired camera.
type Stream interface {
	ID() string
	Facing() Facing
	// Frame returns the current frame at the source's native resolution.
	Frame(ctx context.Context) (image.Image, error)
	// Stop releases every track of the stream. It is safe to call more than once.
	Stop()
	Active() bool
}

// MediaCaptureProvider acquires camera streams by facing.
type MediaCaptureProvider interface {
	Available() bool
	Acquire(ctx context.Context, facing Facing) (Stream, error)
}

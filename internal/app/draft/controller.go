// Package draft owns the composer's unsent text: it mirrors every change to a
// key/value store, restores it on start and gates submission while a
// response is streaming.
//
// A Controller is driven from a single UI goroutine; only persistence runs
// in the background.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

// StorageKey is the key the draft is persisted under.
const StorageKey = "input"

const (
	msgWaitForResponse = "Por favor, espere a que el modelo termine su respuesta"
	msgSubmitFailed    = "No se pudo enviar el mensaje."
)

var (
	ErrResponseStreaming = errors.New("a response is still streaming")
	ErrEmptyDraft        = errors.New("draft is empty")
)

// Surface is the input widget the draft is rendered in.
type Surface interface {
	// Value is the text currently rendered in the widget.
	Value() string
	Width() int
	SetRows(rows int)
	Focus()
}

// KeyPress is the subset of a key event the controller cares about.
type KeyPress struct {
	Enter bool
	// Modified is true when shift/alt/ctrl is held with the key.
	Modified bool
}

type Config struct {
	Store     domain.KeyValueStore
	Responder domain.Responder
	Messages  domain.MessageLog
	Notifier  domain.Notifier

	// Surface is optional.
	Surface Surface
	// ViewportWidth reports the current viewport width. Optional.
	ViewportWidth func() int
	// WideThreshold is the viewport width above which submit refocuses the surface.
	WideThreshold int

	MinRows int
	MaxRows int

	// OnSubmitted runs after the responder accepted the draft. Optional.
	OnSubmitted func(text string)
}

type Controller struct {
	cfg       Config
	text      string
	persist   *persister
	mountOnce sync.Once
}

func NewController(cfg Config) *Controller {
	if cfg.Notifier == nil {
		cfg.Notifier = domain.NotifierFunc(func(domain.Notice) {})
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = 1
	}
	return &Controller{
		cfg:     cfg,
		persist: newPersister(cfg.Store, StorageKey),
	}
}

// Draft returns the in-memory draft.
func (c *Controller) Draft() string {
	return c.text
}

// CanSubmit reports whether the submit control is enabled.
func (c *Controller) CanSubmit() bool {
	return len(c.text) > 0
}

// SetDraft replaces the draft, resizes the surface and schedules a write.
func (c *Controller) SetDraft(text string) {
	c.text = text
	c.resize()
	c.persist.schedule(text)
}

// RestoreOnMount resolves the initial draft: the rendered value wins, then
// the persisted one, then "". Only the first call has any effect.
func (c *Controller) RestoreOnMount(ctx context.Context) {
	c.mountOnce.Do(func() {
		var rendered string
		if c.cfg.Surface != nil {
			rendered = c.cfg.Surface.Value()
		}

		stored, _, err := c.cfg.Store.Get(ctx, StorageKey)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("failed to read persisted draft", "error", err)
			stored = ""
		}

		final := rendered
		if final == "" {
			final = stored
		}
		c.SetDraft(final)
	})
}

// Submit hands the draft to the responder. The in-memory draft is left
// alone: clearing it is the host's job once it has accepted the text.
func (c *Controller) Submit(ctx context.Context) error {
	if c.cfg.Responder.IsStreaming() {
		c.cfg.Notifier.Notify(domain.Notice{Level: domain.NoticeError, Text: msgWaitForResponse})
		return ErrResponseStreaming
	}
	if !c.CanSubmit() {
		return ErrEmptyDraft
	}

	log := observability.LoggerFromContext(ctx)
	if err := c.cfg.Responder.Submit(ctx, c.text); err != nil {
		log.Error("submit failed", "error", err)
		c.cfg.Notifier.Notify(domain.Notice{Level: domain.NoticeError, Text: msgSubmitFailed})
		return fmt.Errorf("submit draft: %w", err)
	}
	log.Debug("draft submitted", "length", len(c.text))

	c.persist.schedule("")
	if c.cfg.OnSubmitted != nil {
		c.cfg.OnSubmitted(c.text)
	}

	if c.cfg.Surface != nil && c.isWide() {
		c.cfg.Surface.Focus()
	}
	return nil
}

// Stop halts the in-flight response and sanitizes the timeline.
func (c *Controller) Stop() {
	c.cfg.Responder.Stop()
	c.cfg.Messages.Sanitize()
}

// HandleKey reports whether the key was consumed. Enter without a modifier
// submits and suppresses the newline; any other key falls through.
func (c *Controller) HandleKey(ctx context.Context, k KeyPress) bool {
	if !k.Enter || k.Modified {
		return false
	}
	_ = c.Submit(ctx)
	return true
}

// Flush waits until the persisted value has caught up with the last change.
func (c *Controller) Flush() {
	c.persist.flush()
}

// Close flushes pending writes and stops the background writer.
func (c *Controller) Close() {
	c.persist.close()
}

func (c *Controller) isWide() bool {
	if c.cfg.ViewportWidth == nil {
		return false
	}
	return c.cfg.ViewportWidth() > c.cfg.WideThreshold
}

func (c *Controller) resize() {
	if c.cfg.Surface == nil {
		return
	}
	c.cfg.Surface.SetRows(Rows(c.text, c.cfg.Surface.Width(), c.cfg.MinRows, c.cfg.MaxRows))
}

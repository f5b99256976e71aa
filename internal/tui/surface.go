package tui

import "github.com/charmbracelet/bubbles/textarea"

// textareaSurface exposes the composer textarea to the draft controller.
type textareaSurface struct {
	ta *textarea.Model
}

func (s textareaSurface) Value() string    { return s.ta.Value() }
func (s textareaSurface) Width() int       { return s.ta.Width() }
func (s textareaSurface) SetRows(rows int) { s.ta.SetHeight(rows) }
func (s textareaSurface) Focus()           { s.ta.Focus() }

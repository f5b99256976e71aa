package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Newline    key.Binding
	Stop       key.Binding
	Camera     key.Binding
	ReadAloud  key.Binding
	Suggestion key.Binding
	Quit       key.Binding

	// capture modal
	SwitchCamera key.Binding
	Shoot        key.Binding
	CancelShot   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "nueva línea"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc", "ctrl+s"),
			key.WithHelp("esc", "detener"),
		),
		Camera: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "cámara"),
		),
		ReadAloud: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "leer respuesta"),
		),
		Suggestion: key.NewBinding(
			key.WithKeys("alt+1", "alt+2"),
			key.WithHelp("alt+1/2", "sugerencia"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "salir"),
		),
		SwitchCamera: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cambiar cámara"),
		),
		Shoot: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "capturar"),
		),
		CancelShot: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancelar"),
		),
	}
}

// ShortHelp implements help.KeyMap for the composer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Newline, k.Stop, k.Camera, k.ReadAloud, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.ShortHelp(),
		{k.Suggestion, k.SwitchCamera, k.Shoot, k.CancelShot},
	}
}

// captureHelp is the key map shown inside the capture modal.
type captureHelp keyMap

func (k captureHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchCamera, k.Shoot, k.CancelShot}
}

func (k captureHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

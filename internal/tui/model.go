// Package tui is the terminal front-end: the conversation timeline, the
// composer, the capture modal and the notice board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/vitalito/internal/app/capture"
	"github.com/PabloGalante/vitalito/internal/app/draft"
	"github.com/PabloGalante/vitalito/internal/app/overview"
	"github.com/PabloGalante/vitalito/internal/app/readaloud"
	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

const (
	refreshInterval = 100 * time.Millisecond
	composerMaxRows = 8
)

// Chat is the conversation the UI drives: it accepts prompts and owns the timeline.
type Chat interface {
	domain.Responder
	domain.MessageLog
}

type Deps struct {
	Chat   Chat
	Store  domain.KeyValueStore
	Camera *capture.Session
	Reader *readaloud.Reader
	Board  *Board

	// WideColumns is the width above which submit keeps focus on the composer.
	WideColumns int
}

type tickMsg time.Time

type cameraOpenedMsg struct{ err error }

type cameraSwitchedMsg struct{ err error }

type capturedMsg struct {
	res *capture.Result
	err error
}

type spokenMsg struct{ err error }

type renderedMessage struct {
	content string
	out     string
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	chat   Chat
	draft  *draft.Controller
	camera *capture.Session
	reader *readaloud.Reader
	board  *Board

	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	renderer *glamour.TermRenderer
	rendered map[domain.MessageID]renderedMessage

	width, height int
	busy          string
	speaking      bool
}

func New(ctx context.Context, deps Deps) *Model {
	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Escribe tu pregunta..."
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(76)
	ta.SetHeight(1)
	keys := defaultKeyMap()
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	board := deps.Board
	if board == nil {
		board = NewBoard(0)
	}

	m := &Model{
		ctx:      ctx,
		cancel:   cancel,
		chat:     deps.Chat,
		camera:   deps.Camera,
		reader:   deps.Reader,
		board:    board,
		input:    ta,
		spinner:  sp,
		help:     help.New(),
		keys:     keys,
		rendered: make(map[domain.MessageID]renderedMessage),
		width:    80,
		height:   24,
	}
	m.renderer = newRenderer(m.width)

	m.draft = draft.NewController(draft.Config{
		Store:         deps.Store,
		Responder:     deps.Chat,
		Messages:      deps.Chat,
		Notifier:      board,
		Surface:       textareaSurface{ta: &m.input},
		ViewportWidth: func() int { return m.width },
		WideThreshold: deps.WideColumns,
		MaxRows:       composerMaxRows,
		OnSubmitted: func(string) {
			m.input.Reset()
			m.draft.SetDraft("")
		},
	})

	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		observability.Logger().Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init restores the persisted draft into the composer.
func (m *Model) Init() tea.Cmd {
	m.draft.RestoreOnMount(m.ctx)
	if d := m.draft.Draft(); d != m.input.Value() {
		m.input.SetValue(d)
	}
	return tea.Batch(textarea.Blink, m.spinner.Tick, tick())
}

// Close releases the camera and flushes the draft. It is safe to call twice.
func (m *Model) Close() {
	m.cancel()
	m.camera.Shutdown()
	m.draft.Close()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(10, msg.Width-2))
		m.help.Width = msg.Width
		m.renderer = newRenderer(msg.Width)
		m.rendered = make(map[domain.MessageID]renderedMessage)
		return m, nil

	case tickMsg:
		// streamed deltas land in the log from another goroutine
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cameraOpenedMsg, cameraSwitchedMsg:
		m.busy = ""
		return m, nil

	case capturedMsg:
		m.busy = ""
		if msg.err == nil && msg.res != nil {
			observability.LoggerFromContext(m.ctx).Debug("capture shown", "width", msg.res.Width, "height", msg.res.Height)
		}
		return m, m.input.Focus()

	case spokenMsg:
		m.speaking = false
		return m, nil

	case tea.KeyMsg:
		if m.camera.State() != domain.CaptureClosed {
			return m.updateCapture(msg)
		}
		return m.updateComposer(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		if m.chat.IsStreaming() {
			m.draft.Stop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Camera):
		m.busy = "Abriendo cámara"
		return m, m.openCamera()

	case key.Matches(msg, m.keys.ReadAloud):
		if m.speaking {
			return m, nil
		}
		m.speaking = true
		return m, m.readAloud()

	case key.Matches(msg, m.keys.Suggestion):
		if !overview.Visible(m.chat) {
			return m, nil
		}
		i := 0
		if msg.String() == "alt+2" {
			i = 1
		}
		if err := overview.Pick(m.ctx, m.chat, i); err != nil {
			observability.LoggerFromContext(m.ctx).Warn("suggestion not sent", "error", err)
		}
		return m, nil
	}

	if m.draft.HandleKey(m.ctx, draft.KeyPress{Enter: msg.Type == tea.KeyEnter, Modified: msg.Alt}) {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.draft.SetDraft(after)
	}
	return m, cmd
}

func (m *Model) updateCapture(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.CancelShot):
		if err := m.camera.Cancel(); err != nil && !errors.Is(err, capture.ErrInvalidState) {
			observability.LoggerFromContext(m.ctx).Warn("cancel capture failed", "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchCamera):
		m.busy = "Cambiando de cámara"
		return m, m.switchCamera()

	case key.Matches(msg, m.keys.Shoot):
		m.busy = "Enviando imagen"
		return m, m.shoot()
	}
	return m, nil
}

// ─────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────

func (m *Model) openCamera() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return cameraOpenedMsg{err: m.camera.Open(ctx)}
	}
}

func (m *Model) switchCamera() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return cameraSwitchedMsg{err: m.camera.SwitchCamera(ctx)}
	}
}

func (m *Model) shoot() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := m.camera.Capture(ctx)
		return capturedMsg{res: res, err: err}
	}
}

func (m *Model) readAloud() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return spokenMsg{err: m.reader.ReadLast(ctx)}
	}
}

// ─────────────────────────────────────────────
// View
// ─────────────────────────────────────────────

func (m *Model) View() string {
	header := m.viewHeader()
	notices := m.viewNotices()
	composer := inputStyle.Width(m.width).Render(m.input.View())
	helpLine := m.help.View(m.keys)

	var body string
	if snap := m.camera.Snapshot(); snap.State != domain.CaptureClosed {
		body = m.viewCapture(snap)
	} else if overview.Visible(m.chat) {
		body = m.viewOverview()
	} else {
		room := m.height - lipgloss.Height(header) - lipgloss.Height(composer) - lipgloss.Height(helpLine)
		if notices != "" {
			room -= lipgloss.Height(notices)
		}
		body = tail(m.viewTimeline(), room)
	}

	parts := []string{header, body}
	if notices != "" {
		parts = append(parts, notices)
	}
	parts = append(parts, composer, helpLine)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) viewHeader() string {
	title := titleStyle.Render(overview.Title)
	var status string
	switch {
	case m.busy != "":
		status = m.spinner.View() + " " + m.busy
	case m.chat.IsStreaming():
		status = m.spinner.View() + " Respondiendo"
	case m.speaking:
		status = "Leyendo en voz alta"
	}
	if status == "" {
		return title
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", statusStyle.Render(status))
}

func (m *Model) viewNotices() string {
	active := m.board.Active()
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, 0, len(active))
	for _, n := range active {
		lines = append(lines, noticeStyle(n.Level).Render(n.Text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewOverview() string {
	var b strings.Builder
	b.WriteString(overviewTitleStyle.Render(overview.Title))
	b.WriteString("\n")

	cards := make([]string, 0, len(overview.Suggestions))
	for i, s := range overview.Suggestions {
		card := lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(s.Title),
			s.Label,
			suggestionKeyStyle.Render(fmt.Sprintf("alt+%d", i+1)),
		)
		cards = append(cards, suggestionStyle.Render(card))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	return b.String()
}

func (m *Model) viewTimeline() string {
	msgs := m.chat.Messages()
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case domain.RoleUser:
			blocks = append(blocks, userLabelStyle.Render("Tú")+"\n"+userTextStyle.Render(msg.Content))
		case domain.RoleAssistant:
			body := msg.Content
			if body == "" && msg.Pending {
				body = m.spinner.View()
			} else {
				body = m.renderMarkdown(msg)
			}
			blocks = append(blocks, assistantLabelStyle.Render(overview.Title)+"\n"+body)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMarkdown(msg domain.Message) string {
	if m.renderer == nil {
		return msg.Content
	}
	if cached, ok := m.rendered[msg.ID]; ok && cached.content == msg.Content {
		return cached.out
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.TrimRight(out, "\n")
	m.rendered[msg.ID] = renderedMessage{content: msg.Content, out: out}
	return out
}

func (m *Model) viewCapture(snap capture.Snapshot) string {
	var status string
	switch snap.State {
	case domain.CaptureOpening:
		status = "Abriendo cámara..."
	case domain.CapturePreviewing:
		status = "Vista previa activa"
	case domain.CaptureCapturing:
		status = "Capturando y enviando..."
	case domain.CaptureSwitchingCamera:
		status = "Cambiando de cámara..."
	case domain.CaptureCancelling:
		status = "Cerrando..."
	}

	camera := "frontal"
	if snap.Facing == domain.FacingBack {
		camera = "trasera"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Capturar receta"),
		"",
		status,
		"Cámara: "+camera,
		statusStyle.Render("stream "+snap.StreamID),
		"",
		m.help.View(captureHelp(m.keys)),
	)
	return lipgloss.Place(m.width, max(lipgloss.Height(content)+4, m.height/2),
		lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

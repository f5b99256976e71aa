package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/vitalito/internal/domain"
)

var (
	accent = lipgloss.Color("#2E9E6B")
	muted  = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	userTextStyle       = lipgloss.NewStyle().PaddingLeft(2)

	overviewTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accent).
				MarginTop(1).
				MarginBottom(1)

	suggestionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			MarginRight(1)

	suggestionKeyStyle = lipgloss.NewStyle().Foreground(muted)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(muted)
)

func noticeStyle(level domain.NoticeLevel) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	switch level {
	case domain.NoticeError:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C0392B"))
	case domain.NoticeSuccess:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(accent)
	default:
		return base.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#F1C40F"))
	}
}

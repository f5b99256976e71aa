package draft

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rows returns how many rows text occupies when soft-wrapped at width cells,
// clamped to [min, max]. A non-positive width disables wrapping.
func Rows(text string, width, min, max int) int {
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		n := lipgloss.Width(line)
		if width <= 0 || n <= width {
			rows++
			continue
		}
		rows += (n + width - 1) / width
	}

	if rows < min {
		rows = min
	}
	if max > 0 && rows > max {
		rows = max
	}
	return rows
}

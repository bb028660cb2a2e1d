package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PopupRenderer handles popup/modal rendering
type PopupRenderer struct {
	styles *Styles
}

// NewPopupRenderer creates a new popup renderer
func NewPopupRenderer(styles *Styles) *PopupRenderer {
	return &PopupRenderer{
		styles: styles,
	}
}

// RenderPopupOverlay centers a popup over a greyed out copy of the main content
func (pr *PopupRenderer) RenderPopupOverlay(mainContent, popupContent string, height, width int, popupStyle lipgloss.Style) string {
	styledPopup := popupStyle.Render(popupContent)
	if width <= 0 || height <= 0 {
		return styledPopup
	}

	base := strings.Split(desaturate(mainContent), "\n")
	for len(base) < height {
		base = append(base, "")
	}
	base = base[:height]

	popupLines := strings.Split(styledPopup, "\n")
	popupW := lipgloss.Width(styledPopup)
	if popupW > width {
		popupW = width
	}
	x := (width - popupW) / 2
	y := (height - len(popupLines)) / 2
	if y < 0 {
		y = 0
	}

	for i, line := range popupLines {
		row := y + i
		if row >= len(base) {
			break
		}
		left := ansi.Truncate(ansi.Strip(base[row]), x, "")
		if pad := x - lipgloss.Width(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		base[row] = pr.styles.Dim.Render(left) + ansi.Truncate(line, width-x, "")
	}
	return strings.Join(base, "\n")
}

// desaturate strips colors and renders everything dim
func desaturate(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(ansi.Strip(line))
	}
	return strings.Join(lines, "\n")
}

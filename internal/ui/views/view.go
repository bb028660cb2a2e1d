package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Lines used by everything except the result list and preview
const chromeLines = 4

// minPreviewWidth is the terminal width below which the preview pane is hidden
const minPreviewWidth = 80

// Row is one result line
type Row struct {
	Location string
	Text     string
}

// StatusKind selects the style of the status line
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width      int
	Height     int
	Input      string
	Spinner    string
	Searching  bool
	Query      string
	Rows       []Row
	Cursor     int
	Offset     int
	Preview    string
	Status     string
	StatusKind StatusKind
	Help       string
	ShowHelp   bool
	FullHelp   string
	Ready      bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		popupRender: NewPopupRenderer(styles),
	}
}

// Styles returns the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// BodyHeight returns how many rows the result list gets
func BodyHeight(height int) int {
	h := height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

// Split returns the list and preview widths; preview is 0 when hidden
func Split(width int) (int, int) {
	if width < minPreviewWidth {
		return width, 0
	}
	list := width * 45 / 100
	return list, width - list
}

// PreviewSize returns the content size of the preview pane for a terminal
// of width x height; width is 0 when the pane is hidden.
func PreviewSize(width, height int) (int, int) {
	_, preview := Split(width - 2)
	if preview == 0 {
		return 0, 0
	}
	return preview - 3, BodyHeight(height)
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	title := r.styles.Title.Render("quickgrep")
	if state.Ready {
		title = "__READY__ " + title
	}
	right := r.indicators(state)
	if right != "" {
		pad := state.Width - lipgloss.Width(title) - lipgloss.Width(right) - 2
		if pad < 2 {
			pad = 2
		}
		title = title + strings.Repeat(" ", pad) + right
	}
	content.WriteString(title)
	content.WriteString("\n")

	content.WriteString(state.Input)
	content.WriteString("\n")

	body := BodyHeight(state.Height)
	listWidth, previewWidth := Split(state.Width - 2)
	list := r.renderResults(state, listWidth, body)
	if previewWidth > 0 && state.Preview != "" {
		pane := r.styles.PreviewBorder.
			Width(previewWidth - 2).
			Height(body).
			MaxHeight(body).
			Render(state.Preview)
		list = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(listWidth).Render(list), pane)
	}
	content.WriteString(list)
	content.WriteString("\n")

	content.WriteString(r.renderStatus(state))
	content.WriteString("\n")
	content.WriteString(state.Help)

	main := r.styles.Main.MaxHeight(state.Height).Render(content.String())

	if state.ShowHelp && state.FullHelp != "" {
		return r.popupRender.RenderPopupOverlay(main, state.FullHelp, state.Height, state.Width, r.styles.InfoBox)
	}
	return main
}

func (r *Renderer) indicators(state ViewState) string {
	var parts []string
	if state.Searching {
		parts = append(parts, r.styles.StatusLoading.Render(state.Spinner+" Searching"))
	}
	if state.Query != "" && !state.Searching {
		parts = append(parts, r.styles.Dim.Render(matchCount(len(state.Rows))))
	}
	return strings.Join(parts, " | ")
}

func matchCount(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}

// renderResults renders the visible slice of the result list
func (r *Renderer) renderResults(state ViewState, width, height int) string {
	if len(state.Rows) == 0 {
		msg := "Type to search"
		switch {
		case state.Searching:
			msg = "Searching..."
		case state.Query != "":
			msg = "No matches"
		}
		lines := []string{r.styles.Dim.Render(msg)}
		for len(lines) < height {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	end := state.Offset + height
	if end > len(state.Rows) {
		end = len(state.Rows)
	}

	lines := make([]string, 0, height)
	for i := state.Offset; i < end; i++ {
		lines = append(lines, r.renderRow(state.Rows[i], state.Query, i == state.Cursor, width))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderRow(row Row, query string, selected bool, width int) string {
	marker := "  "
	if selected {
		marker = r.styles.Highlight.Render("▌ ")
	}
	text := highlightMatch(row.Text, query, r.styles.Highlight, r.styles.Preview)
	line := marker + r.styles.Path.Render(row.Location) + "  " + text
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	if selected {
		if pad := width - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		line = r.styles.SelectionBg.Render(line)
	}
	return line
}

func (r *Renderer) renderStatus(state ViewState) string {
	if state.Status == "" {
		return ""
	}
	switch state.StatusKind {
	case StatusError:
		return r.styles.StatusError.Render(state.Status)
	case StatusWarning:
		return r.styles.StatusWarning.Render(state.Status)
	case StatusSuccess:
		return r.styles.StatusSuccess.Render(state.Status)
	default:
		return r.styles.Dim.Render(state.Status)
	}
}

// highlightMatch highlights the first case-insensitive occurrence of query in text
func highlightMatch(text, query string, highlightStyle, normalStyle lipgloss.Style) string {
	if query == "" {
		return normalStyle.Render(text)
	}
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	index := strings.Index(lowerText, lowerQuery)
	if index == -1 || len(lowerText) != len(text) || len(lowerQuery) != len(query) {
		return normalStyle.Render(text)
	}

	before := text[:index]
	match := text[index : index+len(query)]
	after := text[index+len(query):]

	var result []string
	if before != "" {
		result = append(result, normalStyle.Render(before))
	}
	result = append(result, highlightStyle.Render(match))
	if after != "" {
		result = append(result, normalStyle.Render(after))
	}
	return strings.Join(result, "")
}

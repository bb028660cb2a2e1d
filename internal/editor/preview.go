package editor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"quickgrep/internal/domain"
)

const (
	defaultContextLines = 8
	tabWidth            = 4
)

// Files that are not worth highlighting
var plainExtensions = map[string]bool{
	".txt":  true,
	".log":  true,
	".csv":  true,
	".sum":  true,
	".lock": true,
}

var (
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	matchGutter = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

// Renderer renders the preview window around a location
type Renderer struct {
	ContextLines int
	Formatter    string // chroma formatter, "" disables highlighting
	Style        string // chroma style
}

// NewRenderer creates a terminal renderer
func NewRenderer(contextLines int) *Renderer {
	if contextLines <= 0 {
		contextLines = defaultContextLines
	}
	return &Renderer{
		ContextLines: contextLines,
		Formatter:    "terminal256",
		Style:        "monokai",
	}
}

// Window returns the 1-based inclusive line range shown for line.
// height <= 0 means ContextLines above and below the line.
func (r *Renderer) Window(total, line, height int) (int, int) {
	if total == 0 {
		return 0, 0
	}
	if line < 1 {
		line = 1
	}
	if line > total {
		line = total
	}

	above, below := r.ContextLines, r.ContextLines
	if height > 0 {
		above = (height - 1) / 2
		below = height - 1 - above
	}

	start := line - above
	end := line + below
	if start < 1 {
		end += 1 - start
		start = 1
	}
	if end > total {
		start -= end - total
		end = total
	}
	if start < 1 {
		start = 1
	}
	return start, end
}

// Render returns the highlighted window of f around loc, each line cut to width
func (r *Renderer) Render(f *File, loc domain.Location, width, height int) string {
	if f == nil || f.LineCount() == 0 {
		return noticeStyle.Render("(empty file)")
	}

	start, end := r.Window(f.LineCount(), loc.Line, height)
	source := make([]string, 0, end-start+1)
	for _, l := range f.Lines[start-1 : end] {
		source = append(source, expandTabs(l))
	}

	body := r.highlight(strings.Join(source, "\n"), f.Path, len(source))
	if len(body) != len(source) {
		body = source
	}

	gutter := len(fmt.Sprint(end))
	var out strings.Builder
	for i, text := range body {
		n := start + i
		marker := "  "
		num := gutterStyle.Render(fmt.Sprintf("%*d", gutter, n))
		if n == loc.Line {
			marker = matchGutter.Render("▶ ")
			num = matchGutter.Render(fmt.Sprintf("%*d", gutter, n))
		}
		line := marker + num + gutterStyle.Render(" │ ") + text
		if width > 0 {
			line = ansi.Truncate(line, width, "…")
		}
		out.WriteString(line)
		if i < len(body)-1 {
			out.WriteString("\n")
		}
	}

	if f.Truncated && end == f.LineCount() {
		out.WriteString("\n")
		out.WriteString(noticeStyle.Render("(file truncated)"))
	}
	return out.String()
}

// highlight returns the source split in lines, colored when possible
func (r *Renderer) highlight(code, filename string, want int) []string {
	if r.Formatter == "" || plainExtensions[filepath.Ext(filename)] {
		return strings.Split(code, "\n")
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, filename, r.Formatter, r.Style); err != nil {
		return strings.Split(code, "\n")
	}

	// The formatter may append a newline and trailing reset sequences
	lines := strings.Split(buf.String(), "\n")
	for len(lines) > want && ansi.Strip(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

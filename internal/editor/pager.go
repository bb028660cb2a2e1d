package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/noborus/ov/oviewer"

	"quickgrep/internal/domain"
)

// Terminal is what the pager needs from the running TUI program
type Terminal interface {
	ReleaseTerminal() error
	RestoreTerminal() error
}

// Pager shows a whole file in ov, starting just above a match
type Pager struct {
	files   *FileCache
	context int
	term    Terminal
}

// NewPager creates a pager. The terminal is attached later with SetTerminal.
func NewPager(files *FileCache, contextLines int) *Pager {
	if contextLines < 0 {
		contextLines = 0
	}
	return &Pager{files: files, context: contextLines}
}

// SetTerminal attaches the program that owns the terminal
func (p *Pager) SetTerminal(t Terminal) {
	p.term = t
}

// Show opens loc in the pager and blocks until the user quits it
func (p *Pager) Show(loc domain.Location) error {
	if p.term == nil {
		return fmt.Errorf("program not set")
	}
	if loc.IsZero() {
		return ErrNoLocation
	}

	f, err := p.files.Load(loc.Path)
	if err != nil {
		return err
	}
	text := PagerText(f, loc, p.context)

	if err := p.term.ReleaseTerminal(); err != nil {
		return fmt.Errorf("failed to release terminal: %w", err)
	}
	defer func() {
		// Give ov time to leave the alternate screen
		time.Sleep(100 * time.Millisecond)
		_ = p.term.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("failed to start pager: %w", err)
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// PagerText renders f with line numbers from a few lines above loc to the
// end of the file, under a header naming the location.
func PagerText(f *File, loc domain.Location, context int) string {
	start := loc.Line - context
	if start < 1 {
		start = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", loc)
	if start > 1 {
		fmt.Fprintf(&b, "(lines 1-%d not shown)\n", start-1)
	}

	width := len(fmt.Sprint(f.LineCount()))
	for i := start; i <= f.LineCount(); i++ {
		marker := " "
		if i == loc.Line {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s%*d  %s\n", marker, width, i, expandTabs(f.Lines[i-1]))
	}
	if f.Truncated {
		b.WriteString("(file truncated)\n")
	}
	return b.String()
}

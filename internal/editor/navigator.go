package editor

import (
	"fmt"
	"log"

	"quickgrep/internal/domain"
)

// Navigator tracks what the user is looking at. The active view is the
// durable location; the previewed view is what the preview pane shows and
// may run ahead of the active view while the user browses results.
type Navigator struct {
	files    *FileCache
	renderer *Renderer

	active    domain.View
	previewed domain.View
}

// NewNavigator creates a navigator reading files through files
func NewNavigator(files *FileCache, renderer *Renderer) *Navigator {
	return &Navigator{
		files:    files,
		renderer: renderer,
	}
}

// Snapshot returns the active view
func (n *Navigator) Snapshot() domain.View {
	return n.active
}

// Previewed returns the view shown in the preview pane
func (n *Navigator) Previewed() domain.View {
	return n.previewed
}

// Preview shows loc in the preview pane without touching the active view
func (n *Navigator) Preview(loc domain.Location) error {
	if err := n.check(loc); err != nil {
		return err
	}
	n.previewed = domain.View{Location: loc}
	return nil
}

// Open makes loc the active view
func (n *Navigator) Open(loc domain.Location) error {
	if err := n.check(loc); err != nil {
		return err
	}

	n.active = domain.View{Location: loc}
	n.previewed = n.active
	log.Printf("Editor: opened %s", loc)
	return nil
}

// Restore makes view active again
func (n *Navigator) Restore(view domain.View) error {
	n.active = view
	n.previewed = view
	return nil
}

// Render draws the previewed location using up to height lines. It also
// returns the row of the match inside the rendered text.
func (n *Navigator) Render(width, height int) (string, int) {
	loc := n.previewed.Location
	if loc.IsZero() {
		return "", 0
	}
	f, err := n.files.Load(loc.Path)
	if err != nil {
		return noticeStyle.Render(err.Error()), 0
	}
	start, _ := n.renderer.Window(f.LineCount(), loc.Line, height)
	row := loc.Line - start
	if row < 0 || start == 0 {
		row = 0
	}
	return n.renderer.Render(f, loc, width, height), row
}

func (n *Navigator) check(loc domain.Location) error {
	if loc.IsZero() {
		return ErrNoLocation
	}
	f, err := n.files.Load(loc.Path)
	if err != nil {
		return err
	}
	if loc.Line > f.LineCount() && !f.Truncated {
		return fmt.Errorf("failed to show %s: file has %d lines", loc, f.LineCount())
	}
	return nil
}

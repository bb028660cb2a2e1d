package ui

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"quickgrep/internal/domain"
	"quickgrep/internal/editor"
)

// ErrClipboardUnavailable indicates no clipboard utility was found
var ErrClipboardUnavailable = errors.New("clipboard unavailable - install xclip, xsel, or wl-clipboard")

// LocationOps runs the actions that leave the TUI: the pager and the clipboard
type LocationOps struct {
	pager *editor.Pager
	copy  func(string) error
}

// NewLocationOps creates location operations. pager may be nil.
func NewLocationOps(pager *editor.Pager) *LocationOps {
	return &LocationOps{pager: pager, copy: copyToClipboard}
}

// SetProgram sets the program reference for terminal management
func (o *LocationOps) SetProgram(p *tea.Program) {
	if o.pager != nil && p != nil {
		o.pager.SetTerminal(p)
	}
}

// ShowInPager returns a command that shows loc in the pager
func (o *LocationOps) ShowInPager(loc domain.Location) tea.Cmd {
	return func() tea.Msg {
		if o.pager == nil {
			return pagerMsg{err: errors.New("pager not available")}
		}
		return pagerMsg{err: o.pager.Show(loc)}
	}
}

// Copy returns a command that copies text to the system clipboard
func (o *LocationOps) Copy(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: o.copy(text)}
	}
}

func copyToClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

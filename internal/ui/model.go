// Package ui is the terminal front end of a search session.
package ui

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"quickgrep/internal/config"
	"quickgrep/internal/domain"
	"quickgrep/internal/eventbus"
	"quickgrep/internal/matcher"
	"quickgrep/internal/session"
	"quickgrep/internal/ui/views"
)

// EventSource delivers matcher events
type EventSource interface {
	Events() <-chan matcher.Event
	Done() <-chan struct{}
}

// Matcher starts processes and reports their events
type Matcher interface {
	session.Runner
	EventSource
}

// Previewer renders the previewed location
type Previewer interface {
	session.Navigator
	Render(width, height int) (string, int)
}

// Options configures a Model
type Options struct {
	Matcher      Matcher
	Args         session.ArgBuilder
	Navigator    Previewer
	Ops          *LocationOps
	Bus          eventbus.EventBus
	Session      config.SessionConfig
	InitialQuery string
	Ready        bool // print the readiness marker for terminal tests
}

var _ session.Presenter = (*Model)(nil)

// Model represents the UI state. It is the presenter of its session controller.
type Model struct {
	ctrl    *session.Controller
	events  EventSource
	nav     Previewer
	ops     *LocationOps
	initial string

	keys     keyMap
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	preview  viewport.Model
	renderer *views.Renderer
	paths    pathAbbreviator

	width  int
	height int

	items        []session.Item
	rows         []views.Row
	cursor       int
	offset       int
	pendingFocus bool
	showHelp     bool
	ready        bool

	status     string
	statusKind views.StatusKind
	statusID   int

	debounce   time.Duration
	debounceID int
	lastQuery  string

	disposed bool

	program *tea.Program
}

// NewModel creates a new UI model and the session controller it presents
func NewModel(opts Options) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "search"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		events:   opts.Matcher,
		nav:      opts.Navigator,
		ops:      opts.Ops,
		initial:  opts.InitialQuery,
		keys:     newKeyMap(),
		input:    input,
		spinner:  sp,
		help:     help.New(),
		preview:  viewport.New(0, 0),
		renderer: views.NewRenderer(),
		paths:    newPathAbbreviator(),
		debounce: opts.Session.Debounce(),
		ready:    opts.Ready,
		width:    80,
		height:   24,
	}
	if m.ops == nil {
		m.ops = NewLocationOps(nil)
	}
	m.input.PromptStyle = m.renderer.Styles().Prompt

	m.ctrl = session.NewController(opts.Matcher, opts.Args, m, opts.Navigator, opts.Bus, session.Options{
		MaxResults: opts.Session.MaxResults,
	})
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.ops.SetProgram(p)
}

// Controller returns the session controller
func (m *Model) Controller() *session.Controller {
	return m.ctrl
}

// Committed returns the accepted location once the program has exited
func (m *Model) Committed() (domain.Location, bool) {
	return m.ctrl.Committed()
}

// Close tears the session down
func (m *Model) Close() {
	m.ctrl.Close()
}

// SetItems implements session.Presenter
func (m *Model) SetItems(items []session.Item) {
	m.items = items
	m.rows = make([]views.Row, len(items))
	for i, it := range items {
		m.rows[i] = views.Row{Location: m.paths.Abbreviate(it.Description), Text: it.Label}
	}
	m.cursor = 0
	m.offset = 0
	m.pendingFocus = len(items) > 0
	if len(items) == 0 {
		m.preview.SetContent("")
	}
	if m.statusKind != views.StatusSuccess {
		m.clearStatus()
	}
}

// ShowError implements session.Presenter
func (m *Model) ShowError(message string) {
	m.setStatus(message, views.StatusError)
}

// ShowNotice implements session.Presenter
func (m *Model) ShowNotice(message string) {
	m.setStatus(message, views.StatusWarning)
}

// Dispose implements session.Presenter
func (m *Model) Dispose() {
	m.disposed = true
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	if m.initial != "" {
		m.input.SetValue(m.initial)
		m.input.CursorEnd()
	}
	m.lastQuery = m.initial
	m.ctrl.Open(m.initial)

	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForMatcher(), m.afterController())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 6
		m.clampViewport()
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case matcherMsg:
		m.ctrl.HandleEvent(msg.event)
		return m, tea.Batch(m.waitForMatcher(), m.afterController())

	case debounceMsg:
		if msg.id != m.debounceID {
			return m, nil
		}
		m.ctrl.QueryChanged(msg.query)
		return m, m.afterController()

	case ConfigReloadedMsg:
		if msg.Args != nil {
			m.ctrl.SetArgBuilder(msg.Args)
		}
		m.debounce = msg.Session.Debounce()
		return m, m.setTransientStatus("configuration reloaded", views.StatusSuccess)

	case EventMsg:
		if e, ok := msg.Event.(eventbus.ErrorEvent); ok {
			m.ShowError(e.Message)
		}
		return m, nil

	case pagerMsg:
		if msg.err != nil {
			log.Printf("UI: pager failed: %v", msg.err)
			m.ShowError(fmt.Sprintf("pager: %v", msg.err))
		}
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.ShowError(fmt.Sprintf("copy failed: %v", msg.err))
			return m, nil
		}
		return m, m.setTransientStatus("copied "+msg.text, views.StatusSuccess)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.clearStatus()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		if key.Matches(msg, m.keys.ToggleHelp) || msg.Type == tea.KeyEsc {
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Hide()
		return m, m.afterController()

	case key.Matches(msg, m.keys.Accept):
		m.ctrl.Accept()
		return m, m.afterController()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-views.BodyHeight(m.height))
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(views.BodyHeight(m.height))
		return m, nil

	case key.Matches(msg, m.keys.PreviewUp):
		m.preview.SetYOffset(m.preview.YOffset - 1)
		return m, nil

	case key.Matches(msg, m.keys.PreviewDown):
		m.preview.SetYOffset(m.preview.YOffset + 1)
		return m, nil

	case key.Matches(msg, m.keys.Pager):
		rec, ok := m.ctrl.Focused()
		if !ok {
			return m, nil
		}
		return m, m.ops.ShowInPager(rec.Location())

	case key.Matches(msg, m.keys.Copy):
		rec, ok := m.ctrl.Focused()
		if !ok {
			return m, nil
		}
		return m, m.ops.Copy(rec.Location().String())

	case key.Matches(msg, m.keys.ToggleHelp):
		m.showHelp = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(cmd, m.queryChanged())
}

// queryChanged dispatches the query box value when it changed, either now
// or after the debounce delay. Only the newest pending dispatch fires.
func (m *Model) queryChanged() tea.Cmd {
	q := m.input.Value()
	if q == m.lastQuery {
		return nil
	}
	m.lastQuery = q
	m.debounceID++

	if m.debounce <= 0 || q == "" {
		m.ctrl.QueryChanged(q)
		return m.afterController()
	}

	id := m.debounceID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id, query: q}
	})
}

// afterController applies what the controller asked of the presenter
func (m *Model) afterController() tea.Cmd {
	if m.disposed {
		return tea.Quit
	}
	if m.pendingFocus {
		m.pendingFocus = false
		m.focus()
	}
	return nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.items) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(m.items)-1 {
		next = len(m.items) - 1
	}
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.clampViewport()
	m.focus()
}

func (m *Model) focus() {
	if m.cursor >= len(m.items) {
		return
	}
	m.ctrl.Focus(m.items[m.cursor].ID)
	m.refreshPreview()
}

func (m *Model) refreshPreview() {
	w, h := views.PreviewSize(m.width, m.height)
	m.preview.Width = w
	m.preview.Height = h
	if w == 0 || m.nav == nil {
		return
	}

	// Render more than fits so the pane can scroll around the match
	content, row := m.nav.Render(w, h*3)
	m.preview.SetContent(content)
	m.preview.SetYOffset(row - h/2)
}

// clampViewport ensures the cursor is visible within the scrolled list
func (m *Model) clampViewport() {
	visible := views.BodyHeight(m.height)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) setStatus(text string, kind views.StatusKind) {
	m.statusID++
	m.status = text
	m.statusKind = kind
}

func (m *Model) setTransientStatus(text string, kind views.StatusKind) tea.Cmd {
	m.setStatus(text, kind)
	id := m.statusID
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m *Model) clearStatus() {
	m.statusID++
	m.status = ""
	m.statusKind = views.StatusInfo
}

// waitForMatcher returns a command that waits for the next matcher event
func (m *Model) waitForMatcher() tea.Cmd {
	src := m.events
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev := <-src.Events():
			return matcherMsg{event: ev}
		case <-src.Done():
			return nil
		}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.disposed {
		return ""
	}

	spin := ""
	if m.ctrl.Searching() {
		spin = m.spinner.View()
	}
	preview := ""
	if m.preview.Width > 0 && len(m.items) > 0 {
		preview = m.preview.View()
	}

	return m.renderer.Render(views.ViewState{
		Width:      m.width,
		Height:     m.height,
		Input:      m.input.View(),
		Spinner:    spin,
		Searching:  m.ctrl.Searching(),
		Query:      m.ctrl.Query(),
		Rows:       m.rows,
		Cursor:     m.cursor,
		Offset:     m.offset,
		Preview:    preview,
		Status:     m.status,
		StatusKind: m.statusKind,
		Help:       m.help.ShortHelpView(m.keys.ShortHelp()),
		ShowHelp:   m.showHelp,
		FullHelp:   m.help.FullHelpView(m.keys.FullHelp()),
		Ready:      m.ready,
	})
}

// Package session drives one interactive search from first keystroke to
// commit or cancel.
//
// The Controller is not safe for concurrent use. It is meant to be called from
// a single event loop: UI events and matcher events are both delivered to it
// from the same goroutine.
package session

import (
	"fmt"
	"log"

	"quickgrep/internal/domain"
	"quickgrep/internal/eventbus"
	"quickgrep/internal/matcher"
	"quickgrep/internal/parser"
)

// Item is one row handed to the presenter
type Item struct {
	ID          int
	Label       string
	Description string
}

// Presenter renders the session. It never mutates session state; it only
// reports user events back through the controller's methods.
type Presenter interface {
	SetItems(items []Item)
	ShowError(message string)
	ShowNotice(message string)
	Dispose()
}

// Navigator shows locations to the user
type Navigator interface {
	// Snapshot returns the view that is active right now
	Snapshot() domain.View
	// Preview shows loc without making it the active view
	Preview(loc domain.Location) error
	// Open makes loc the active view
	Open(loc domain.Location) error
	// Restore makes view the active view again
	Restore(view domain.View) error
}

// Runner starts and cancels matcher processes
type Runner interface {
	Start(argv []string) matcher.Process
	Cancel(p matcher.Process)
}

// ArgBuilder builds the matcher command line for a query
type ArgBuilder interface {
	Args(query string) []string
}

// Options tunes a controller
type Options struct {
	// MaxResults caps the records kept per query; 0 means unbounded
	MaxResults int
}

// Controller owns the session state: the query, the result buffer, the
// single in-flight matcher process and the lifecycle state.
type Controller struct {
	runner    Runner
	args      ArgBuilder
	presenter Presenter
	nav       Navigator
	bus       eventbus.EventBus
	opts      Options

	state     domain.LifecycleState
	query     string
	proc      matcher.Process
	results   []domain.MatchRecord // buffer for the running query
	truncated bool
	items     []domain.MatchRecord // what the presenter is showing
	focused   int
	prior     domain.View
	opened    bool
	accepted  bool
	disposed  bool
	committed domain.Location
}

// NewController creates a controller. bus may be nil.
func NewController(runner Runner, args ArgBuilder, presenter Presenter, nav Navigator, bus eventbus.EventBus, opts Options) *Controller {
	return &Controller{
		runner:    runner,
		args:      args,
		presenter: presenter,
		nav:       nav,
		bus:       bus,
		opts:      opts,
		state:     domain.StateIdle,
		focused:   -1,
	}
}

// State returns the lifecycle state
func (c *Controller) State() domain.LifecycleState {
	return c.state
}

// Query returns the current query
func (c *Controller) Query() string {
	return c.query
}

// Searching reports whether a matcher process is in flight
func (c *Controller) Searching() bool {
	return c.proc != nil
}

// Results returns a copy of the records presented to the user
func (c *Controller) Results() []domain.MatchRecord {
	return append([]domain.MatchRecord(nil), c.items...)
}

// Truncated reports whether the presented results hit the result cap
func (c *Controller) Truncated() bool {
	return c.truncated
}

// Focused returns the highlighted record
func (c *Controller) Focused() (domain.MatchRecord, bool) {
	if c.focused < 0 || c.focused >= len(c.items) {
		return domain.MatchRecord{}, false
	}
	return c.items[c.focused], true
}

// Committed returns the location the user accepted
func (c *Controller) Committed() (domain.Location, bool) {
	return c.committed, c.state == domain.StateCommitted
}

// SetArgBuilder replaces the argument builder; the next search uses it
func (c *Controller) SetArgBuilder(args ArgBuilder) {
	c.args = args
}

// Open starts the session. The navigator's current view is remembered so
// a cancel can return to it.
func (c *Controller) Open(initial string) {
	if c.opened || c.state.Terminal() {
		return
	}
	c.opened = true
	c.prior = c.nav.Snapshot()

	if initial == "" {
		c.presenter.SetItems([]Item{})
		return
	}
	c.QueryChanged(initial)
}

// QueryChanged re-arms the session for q. Every call supersedes the
// previous search.
func (c *Controller) QueryChanged(q string) {
	if c.state.Terminal() {
		return
	}
	c.query = q
	c.stopProcess()
	c.results = nil
	c.truncated = false
	c.items = nil
	c.focused = -1
	c.presenter.SetItems([]Item{})

	if q == "" {
		c.state = domain.StateIdle
		c.publish(eventbus.SearchClearedEvent{})
		return
	}

	c.state = domain.StateSearching
	c.proc = c.runner.Start(c.args.Args(q))
	c.publish(eventbus.SearchStartedEvent{Query: q, ProcessID: c.proc.ID()})
}

// HandleEvent applies a matcher event. Events from any process other than
// the current one are discarded.
func (c *Controller) HandleEvent(ev matcher.Event) {
	if c.state.Terminal() || c.proc == nil || ev.ProcessID() != c.proc.ID() {
		return
	}

	switch e := ev.(type) {
	case matcher.LinesEvent:
		c.appendLines(e.Lines)
	case matcher.ExitEvent:
		c.proc = nil
		c.finish(e.Outcome)
	}
}

func (c *Controller) appendLines(lines []string) {
	for _, rec := range parser.ParseLines(lines) {
		if c.opts.MaxResults > 0 && len(c.results) >= c.opts.MaxResults {
			c.truncated = true
			break
		}
		c.results = append(c.results, rec)
	}

	if c.truncated {
		log.Printf("Session: query %q reached %d results, stopping search", c.query, c.opts.MaxResults)
		c.stopProcess()
		c.materialize()
	}
}

func (c *Controller) finish(outcome domain.Outcome) {
	switch outcome.Kind {
	case domain.OutcomeSuccess:
		c.materialize()

	case domain.OutcomeEmpty:
		if outcome.Message != "" {
			log.Printf("Session: query %q: %s", c.query, outcome.Message)
		}
		c.results = nil
		c.materialize()

	case domain.OutcomeFatal:
		c.results = nil
		c.items = nil
		c.focused = -1
		c.state = domain.StateIdle
		c.presenter.SetItems([]Item{})
		c.presenter.ShowError(outcome.Message)
		c.publish(eventbus.SearchFailedEvent{Query: c.query, Message: outcome.Message})

	case domain.OutcomeSuppressed:
	}
}

// materialize hands the buffered results to the presenter in arrival order
func (c *Controller) materialize() {
	c.items = c.results
	c.results = nil
	c.focused = -1
	if len(c.items) > 0 {
		c.state = domain.StatePresenting
	} else {
		c.state = domain.StateIdle
	}

	items := make([]Item, len(c.items))
	for i, rec := range c.items {
		items[i] = Item{
			ID:          i,
			Label:       rec.Preview,
			Description: rec.Location().String(),
		}
	}
	c.presenter.SetItems(items)
	if c.truncated {
		c.presenter.ShowNotice(fmt.Sprintf("showing first %d matches", len(items)))
	}

	c.publish(eventbus.SearchCompletedEvent{
		Query:      c.query,
		MatchCount: len(items),
		Truncated:  c.truncated,
	})
}

// Focus previews the item with the given id
func (c *Controller) Focus(id int) {
	if c.state.Terminal() || id < 0 || id >= len(c.items) {
		return
	}
	c.focused = id
	c.state = domain.StatePresenting

	loc := c.items[id].Location()
	if err := c.nav.Preview(loc); err != nil {
		log.Printf("Session: failed to preview %s: %v", loc, err)
		c.presenter.ShowError(fmt.Sprintf("cannot preview %s: %v", loc, err))
	}
}

// Accept commits to the focused item. Without one the session is cancelled.
func (c *Controller) Accept() {
	if c.state.Terminal() {
		return
	}
	rec, ok := c.Focused()
	if !ok {
		c.cancel()
		return
	}

	loc := rec.Location()
	if err := c.nav.Open(loc); err != nil {
		log.Printf("Session: failed to open %s: %v", loc, err)
		c.presenter.ShowError(fmt.Sprintf("cannot open %s: %v", loc, err))
		return
	}

	c.accepted = true
	c.committed = loc
	c.state = domain.StateCommitted
	c.publish(eventbus.SessionCommittedEvent{Query: c.query, Location: loc})
	c.teardown()
}

// Hide dismisses the session without a selection
func (c *Controller) Hide() {
	if c.state.Terminal() {
		return
	}
	c.cancel()
}

// Close tears the session down. An open session is cancelled first.
func (c *Controller) Close() {
	if !c.state.Terminal() {
		c.cancel()
		return
	}
	c.teardown()
}

func (c *Controller) cancel() {
	if !c.accepted {
		if err := c.nav.Restore(c.prior); err != nil {
			log.Printf("Session: failed to restore previous view: %v", err)
		}
	}
	c.state = domain.StateCancelled
	c.publish(eventbus.SessionCancelledEvent{Query: c.query})
	c.teardown()
}

func (c *Controller) teardown() {
	c.stopProcess()
	c.results = nil
	if !c.disposed {
		c.disposed = true
		c.presenter.Dispose()
	}
}

func (c *Controller) stopProcess() {
	if c.proc == nil {
		return
	}
	c.runner.Cancel(c.proc)
	c.proc = nil
}

func (c *Controller) publish(e eventbus.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

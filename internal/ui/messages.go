package ui

import (
	"time"

	"quickgrep/internal/config"
	"quickgrep/internal/eventbus"
	"quickgrep/internal/matcher"
	"quickgrep/internal/session"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// ConfigReloadedMsg carries a reloaded configuration. Args applies to the next search.
type ConfigReloadedMsg struct {
	Args    session.ArgBuilder
	Session config.SessionConfig
}

// matcherMsg carries one event from the matcher supervisor
type matcherMsg struct {
	event matcher.Event
}

// debounceMsg fires when a query has been stable for the debounce delay
type debounceMsg struct {
	id    int
	query string
}

// pagerMsg contains the result of a pager command
type pagerMsg struct {
	err error
}

// clipboardMsg contains the result of a copy command
type clipboardMsg struct {
	text string
	err  error
}

// clearStatusMsg clears a transient status message
type clearStatusMsg struct {
	id int
}

const statusTTL = 3 * time.Second

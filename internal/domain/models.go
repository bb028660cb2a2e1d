package domain

import "fmt"

// Location identifies a position inside a file
type Location struct {
	Path   string
	Line   int // 1-based
	Column int // 1-based
}

// String renders the location as path:line:col
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// IsZero reports whether the location points nowhere
func (l Location) IsZero() bool {
	return l.Path == ""
}

// MatchRecord represents one search hit reported by the matcher
type MatchRecord struct {
	FilePath string
	Line     int
	Column   int
	Preview  string // trimmed content of the matched line
	Raw      string // original matcher output line
}

// Location returns where the match points to
func (r MatchRecord) Location() Location {
	return Location{Path: r.FilePath, Line: r.Line, Column: r.Column}
}

// View is what the navigator is showing. A zero View means nothing is open.
type View struct {
	Location Location
}

// LifecycleState is the state of a search session
type LifecycleState int

const (
	StateIdle LifecycleState = iota
	StateSearching
	StatePresenting
	StateCommitted
	StateCancelled
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSearching:
		return "Searching"
	case StatePresenting:
		return "Presenting"
	case StateCommitted:
		return "Committed"
	case StateCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible
func (s LifecycleState) Terminal() bool {
	return s == StateCommitted || s == StateCancelled
}

// OutcomeKind classifies how a matcher run ended
type OutcomeKind int

const (
	OutcomeSuccess    OutcomeKind = iota // exited 0 with output
	OutcomeEmpty                         // no matches, not an error
	OutcomeFatal                         // user-visible failure
	OutcomeSuppressed                    // preempted run, ignored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeEmpty:
		return "Empty"
	case OutcomeFatal:
		return "Fatal"
	case OutcomeSuppressed:
		return "Suppressed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the pre-classified result of a matcher run
type Outcome struct {
	Kind    OutcomeKind
	Message string // user-facing for Fatal, diagnostic otherwise
	Code    *int   // exit code, nil when the process was killed
}

package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted    EventType = "SearchStarted"
	EventSearchCompleted  EventType = "SearchCompleted"
	EventSearchFailed     EventType = "SearchFailed"
	EventSearchCleared    EventType = "SearchCleared"
	EventSessionCommitted EventType = "SessionCommitted"
	EventSessionCancelled EventType = "SessionCancelled"
	EventConfigLoaded     EventType = "ConfigLoaded"
	EventConfigSaved      EventType = "ConfigSaved"
	EventConfigChanged    EventType = "ConfigChanged"
	EventError            EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a matcher process is spawned for a query
type SearchStartedEvent struct {
	Query     string
	ProcessID uint64
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when results are materialized
type SearchCompletedEvent struct {
	Query      string
	MatchCount int
	Truncated  bool
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when a search ends with a user-visible failure
type SearchFailedEvent struct {
	Query   string
	Message string
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// SearchClearedEvent is emitted when the query becomes empty
type SearchClearedEvent struct{}

func (e SearchClearedEvent) Type() EventType { return EventSearchCleared }

// SessionCommittedEvent is emitted when the user accepts a match
type SessionCommittedEvent struct {
	Query    string
	Location Location
}

func (e SessionCommittedEvent) Type() EventType { return EventSessionCommitted }

// SessionCancelledEvent is emitted when the session is dismissed without a selection
type SessionCancelledEvent struct {
	Query string
}

func (e SessionCancelledEvent) Type() EventType { return EventSessionCancelled }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path     string
	Defaults bool // the file was missing
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ConfigChangedEvent is emitted when the config file changed on disk
type ConfigChangedEvent struct {
	Path string
}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }

// ErrorEvent is emitted when a background operation fails
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

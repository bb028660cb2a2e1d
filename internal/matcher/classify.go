package matcher

import (
	"fmt"

	"quickgrep/internal/domain"
)

// Exit codes with a dedicated meaning
const (
	ExitOK            = 0
	ExitInternalError = 1
	ExitNoMatches     = 2
	ExitNotFound      = 127
)

// Classify maps a matcher exit code to an outcome.
// A nil code means the process was killed, which only happens when a newer
// search preempted it.
func Classify(code *int, lines int) domain.Outcome {
	if code == nil {
		return domain.Outcome{Kind: domain.OutcomeSuppressed}
	}

	c := *code
	switch c {
	case ExitOK:
		if lines > 0 {
			return domain.Outcome{Kind: domain.OutcomeSuccess, Code: code}
		}
		return domain.Outcome{Kind: domain.OutcomeEmpty, Code: code}
	case ExitInternalError:
		return domain.Outcome{
			Kind:    domain.OutcomeEmpty,
			Message: "matcher reported an internal error",
			Code:    code,
		}
	case ExitNoMatches:
		return domain.Outcome{Kind: domain.OutcomeEmpty, Code: code}
	case ExitNotFound:
		return domain.Outcome{
			Kind:    domain.OutcomeFatal,
			Message: "search executable not found: install ripgrep (rg) or set matcher.executable",
			Code:    code,
		}
	default:
		return domain.Outcome{
			Kind:    domain.OutcomeFatal,
			Message: fmt.Sprintf("search failed with exit code %d", c),
			Code:    code,
		}
	}
}

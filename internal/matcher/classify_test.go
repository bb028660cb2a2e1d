package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quickgrep/internal/domain"
)

func intPtr(i int) *int { return &i }

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		code        *int
		lines       int
		wantKind    domain.OutcomeKind
		wantMessage string
	}{
		{name: "zero with output", code: intPtr(0), lines: 3, wantKind: domain.OutcomeSuccess},
		{name: "zero without output", code: intPtr(0), lines: 0, wantKind: domain.OutcomeEmpty},
		{name: "internal error is not surfaced", code: intPtr(1), wantKind: domain.OutcomeEmpty, wantMessage: "internal error"},
		{name: "no matches", code: intPtr(2), wantKind: domain.OutcomeEmpty},
		{name: "no matches ignores stray output", code: intPtr(2), lines: 4, wantKind: domain.OutcomeEmpty},
		{name: "executable missing", code: intPtr(127), wantKind: domain.OutcomeFatal, wantMessage: "not found"},
		{name: "unknown code", code: intPtr(13), wantKind: domain.OutcomeFatal, wantMessage: "exit code 13"},
		{name: "killed", code: nil, lines: 10, wantKind: domain.OutcomeSuppressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.code, tt.lines)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantMessage != "" {
				assert.Contains(t, got.Message, tt.wantMessage)
			}
			if tt.code != nil {
				if assert.NotNil(t, got.Code) {
					assert.Equal(t, *tt.code, *got.Code)
				}
			} else {
				assert.Nil(t, got.Code)
			}
		})
	}
}

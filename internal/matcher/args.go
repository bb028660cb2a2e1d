package matcher

import (
	"fmt"
	"log"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/shlex"

	"quickgrep/internal/config"
)

// RequiredArgs make the matcher emit path:line:col:content without color or headings
var RequiredArgs = []string{
	"--line-number",
	"--column",
	"--no-heading",
	"--with-filename",
	"--color=never",
}

// Builder constructs matcher command lines for a query
type Builder struct {
	executable string
	extra      []string
	exclude    []string
	roots      []string
}

// NewBuilder creates a builder from matcher config and resolved root paths.
// Invalid exclude globs are dropped.
func NewBuilder(cfg config.MatcherConfig, roots []string) *Builder {
	b := &Builder{
		executable: cfg.Executable,
		extra:      append([]string(nil), cfg.ExtraArgs...),
		roots:      append([]string(nil), roots...),
	}
	if b.executable == "" {
		b.executable = config.DefaultExecutable
	}
	if len(b.roots) == 0 {
		b.roots = []string{"."}
	}
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			log.Printf("Matcher: ignoring invalid exclude glob %q", pattern)
			continue
		}
		b.exclude = append(b.exclude, pattern)
	}
	return b
}

// Args returns the full argv for query. The query is always a single
// argument placed after "--" so it is never read as a flag.
func (b *Builder) Args(query string) []string {
	argv := make([]string, 0, 1+len(RequiredArgs)+len(b.extra)+2*len(b.exclude)+2+len(b.roots))
	argv = append(argv, b.executable)
	argv = append(argv, RequiredArgs...)
	argv = append(argv, b.extra...)
	for _, pattern := range b.exclude {
		argv = append(argv, "--glob", "!"+pattern)
	}
	argv = append(argv, "--", query)
	argv = append(argv, b.roots...)
	return argv
}

// SplitArgs splits a shell-style flag string such as `--hidden -g '!*.min.js'`
func SplitArgs(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse matcher arguments %q: %w", s, err)
	}
	return args, nil
}

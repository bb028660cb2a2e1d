// Package workspace decides where a search runs and which paths it covers.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoRoots is returned when none of the configured roots exist
var ErrNoRoots = errors.New("no search roots matched")

// Workspace is the directory a search runs in
type Workspace struct {
	Base     string // absolute directory the matcher runs in
	RepoRoot string // git toplevel containing Base, "" outside a repository
}

// Detect resolves dir to an absolute path and finds its git repository, if any.
// With useRepoRoot the repository toplevel becomes the base.
func Detect(ctx context.Context, dir string, useRepoRoot bool) (Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Workspace{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	ws := Workspace{Base: abs}
	root, err := RepoRoot(ctx, abs)
	if err != nil {
		log.Printf("Workspace: %s is not inside a git repository: %v", abs, err)
		return ws, nil
	}
	ws.RepoRoot = root
	if useRepoRoot {
		ws.Base = root
	}
	return ws, nil
}

// RepoRoot returns the git toplevel for dir
func RepoRoot(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// ResolveRoots turns configured root patterns into matcher path arguments
// relative to base. Plain entries are passed through; entries containing glob
// metacharacters are expanded. No patterns means the base itself.
func ResolveRoots(base string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return []string{"."}, nil
	}

	seen := make(map[string]bool)
	var roots []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}

		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(base, pattern)
		}
		matches, err := doublestar.FilepathGlob(full)
		if err != nil {
			log.Printf("Workspace: invalid root pattern %q: %v", pattern, err)
			continue
		}
		if len(matches) == 0 {
			log.Printf("Workspace: root pattern %q matched nothing", pattern)
			continue
		}
		for _, m := range matches {
			if rel, err := filepath.Rel(base, m); err == nil && !strings.HasPrefix(rel, "..") {
				add(rel)
			} else {
				add(m)
			}
		}
	}

	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRoots, strings.Join(patterns, ", "))
	}
	return roots, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

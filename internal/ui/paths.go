package ui

import (
	"os"
	"path/filepath"
	"strings"
)

// pathAbbreviator shortens matcher paths for display
type pathAbbreviator struct {
	cwd  string
	home string
}

func newPathAbbreviator() pathAbbreviator {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return pathAbbreviator{cwd: cwd, home: home}
}

// Abbreviate drops a leading "./", makes paths under the working
// directory relative and replaces the home directory with ~
func (p pathAbbreviator) Abbreviate(path string) string {
	if strings.HasPrefix(path, "./") {
		return strings.TrimPrefix(path, "./")
	}
	if !filepath.IsAbs(path) {
		return path
	}
	if p.cwd != "" {
		if rel, err := filepath.Rel(p.cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	if p.home != "" && strings.HasPrefix(path, p.home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(path, p.home)
	}
	return path
}

//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// fakeMatcher mimics the ripgrep invocation quickgrep makes: flags up to
// "--", then the query and the search roots. Output is path:line:col:text.
// Exit codes follow ripgrep: 0 on matches, 2 when nothing matched.
const fakeMatcher = `#!/bin/sh
while [ "$#" -gt 0 ]; do
	if [ "$1" = "--" ]; then
		shift
		break
	fi
	shift
done
query="$1"
shift
out=$(grep -rnH -F -- "$query" "$@")
if [ -z "$out" ]; then
	exit 2
fi
printf '%s\n' "$out" | sed 's/^\([^:]*:[0-9]*\):/\1:1:/'
exit 0
`

// CreateTestWorkspace creates a temporary directory for the search
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tmpDir := tf.t.TempDir()
	tf.workspace = tmpDir
	return tmpDir, nil
}

// WriteFiles writes files relative to the workspace
func (tf *TUITestFramework) WriteFiles(files map[string]string) error {
	if tf.workspace == "" {
		return fmt.Errorf("workspace not created")
	}
	for name, content := range files {
		path := filepath.Join(tf.workspace, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// InstallFakeMatcher writes the fake matcher outside the searched tree and
// returns its path
func (tf *TUITestFramework) InstallFakeMatcher() (string, error) {
	dir := tf.t.TempDir()
	path := filepath.Join(dir, "rg")
	if err := os.WriteFile(path, []byte(fakeMatcher), 0755); err != nil {
		return "", fmt.Errorf("failed to write fake matcher: %w", err)
	}
	return path, nil
}

// CreateSearchWorkspace creates a workspace with a small source tree and
// points QUICKGREP_RG at the fake matcher
func (tf *TUITestFramework) CreateSearchWorkspace() (string, error) {
	workspace, err := tf.CreateTestWorkspace()
	if err != nil {
		return "", err
	}
	err = tf.WriteFiles(map[string]string{
		"src/main.txt":  "first line\nthe needle is here\nlast line\n",
		"src/other.txt": "nothing\nto\nsee\nanother needle\n",
		"docs/readme":   "hay\nhay\nhay\n",
	})
	if err != nil {
		return "", err
	}
	rg, err := tf.InstallFakeMatcher()
	if err != nil {
		return "", err
	}
	tf.Setenv("QUICKGREP_RG", rg)
	return workspace, nil
}

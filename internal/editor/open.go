package editor

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"quickgrep/internal/domain"
)

const fallbackEditor = "vi"

// OpenCommand returns the argv that opens loc. template may use {path},
// {line} and {col}; placeholders are substituted after splitting so paths
// containing spaces stay one argument. An empty template opens $EDITOR at
// the line.
func OpenCommand(template string, loc domain.Location) ([]string, error) {
	if loc.IsZero() {
		return nil, ErrNoLocation
	}

	if strings.TrimSpace(template) == "" {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = fallbackEditor
		}
		argv, err := shlex.Split(editor)
		if err != nil || len(argv) == 0 {
			return nil, fmt.Errorf("failed to parse $EDITOR %q: %v", editor, err)
		}
		return append(argv, "+"+strconv.Itoa(loc.Line), loc.Path), nil
	}

	parts, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse open command %q: %w", template, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("open command %q is empty", template)
	}

	r := strings.NewReplacer(
		"{path}", loc.Path,
		"{line}", strconv.Itoa(loc.Line),
		"{col}", strconv.Itoa(loc.Column),
	)
	for i, p := range parts {
		parts[i] = r.Replace(p)
	}
	return parts, nil
}

// Launcher runs the open command attached to the terminal
type Launcher struct {
	Template string
	Dir      string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// NewLauncher creates a launcher using the process's standard streams
func NewLauncher(template, dir string) *Launcher {
	return &Launcher{
		Template: template,
		Dir:      dir,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Open runs the open command for loc and waits for it to exit
func (l *Launcher) Open(ctx context.Context, loc domain.Location) error {
	argv, err := OpenCommand(l.Template, loc)
	if err != nil {
		return err
	}

	log.Printf("Editor: running %s", strings.Join(argv, " "))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.Dir
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}

// Print writes loc as path:line:col
func Print(w io.Writer, loc domain.Location) error {
	if loc.IsZero() {
		return ErrNoLocation
	}
	_, err := fmt.Fprintln(w, loc.String())
	return err
}

// Package editor shows match locations: the preview window, the durable
// "open" location, the full-file pager and the external open command.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNoLocation is returned when asked to show an empty location
	ErrNoLocation = errors.New("no location")
	// ErrBinaryFile is returned for files that look binary
	ErrBinaryFile = errors.New("binary file")
)

const (
	defaultMaxFileBytes = 512 * 1024
	cacheCapacity       = 32
	binarySniffBytes    = 8000
)

// File is a loaded text file
type File struct {
	Path      string
	Lines     []string
	Truncated bool // only the first MaxFileBytes were read
	ModTime   time.Time
}

// LineCount returns the number of lines loaded
func (f *File) LineCount() int {
	return len(f.Lines)
}

// FileCache loads files relative to a base directory and keeps the most
// recently used ones. Entries are revalidated by modification time. It is
// safe for concurrent use.
type FileCache struct {
	base     string
	maxBytes int64
	entries  *lru.Cache[string, *File]
}

// NewFileCache creates a cache for files under base. maxBytes <= 0 uses the default.
func NewFileCache(base string, maxBytes int64) *FileCache {
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	entries, err := lru.New[string, *File](cacheCapacity)
	if err != nil {
		panic(fmt.Sprintf("editor: failed to create file cache: %v", err))
	}
	return &FileCache{
		base:     base,
		maxBytes: maxBytes,
		entries:  entries,
	}
}

// Resolve returns the absolute path for a matcher-relative path
func (c *FileCache) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.base, path)
}

// Load returns the file at path, reading it from disk when the cached copy is stale
func (c *FileCache) Load(path string) (*File, error) {
	full := c.Resolve(path)

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to load %s: is a directory", path)
	}

	if cached, ok := c.entries.Get(full); ok && cached.ModTime.Equal(info.ModTime()) {
		return cached, nil
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sniff := data
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrBinaryFile, path)
	}

	file := &File{
		Path:      path,
		Lines:     splitFileLines(string(data)),
		Truncated: info.Size() > c.maxBytes,
		ModTime:   info.ModTime(),
	}
	c.entries.Add(full, file)
	return file, nil
}

func splitFileLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

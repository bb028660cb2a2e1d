// Package matcher runs the external search executable and reports its output.
package matcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"quickgrep/internal/domain"
)

const (
	chunkSize      = 32 * 1024
	maxStderrBytes = 64 * 1024
	eventBuffer    = 64
)

// Event is something that happened to a matcher process.
// Every event carries the ID of the process it originated from.
type Event interface {
	ProcessID() uint64
}

// LinesEvent carries the complete, non-empty stdout lines of one output chunk
type LinesEvent struct {
	ID    uint64
	Lines []string
}

func (e LinesEvent) ProcessID() uint64 { return e.ID }

// ExitEvent is the last event of a process
type ExitEvent struct {
	ID      uint64
	Code    *int // nil when the process was killed
	Outcome domain.Outcome
	Stderr  string
}

func (e ExitEvent) ProcessID() uint64 { return e.ID }

// Process is an owned matcher invocation
type Process interface {
	ID() uint64
	// Cancel terminates the process immediately. Calling it more than once,
	// or after the process exited, does nothing.
	Cancel()
	// Done is closed once the exit event has been produced
	Done() <-chan struct{}
}

type handle struct {
	id     uint64
	cancel context.CancelFunc
	once   sync.Once
	stop   chan struct{}
	done   chan struct{}
}

func newHandle(id uint64, cancel context.CancelFunc) *handle {
	return &handle{
		id:     id,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (h *handle) ID() uint64 { return h.id }

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) Cancel() {
	h.once.Do(func() {
		close(h.stop)
		if h.cancel != nil {
			h.cancel()
		}
	})
}

func (h *handle) cancelled() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

// Supervisor owns at most one running matcher process at a time
type Supervisor struct {
	dir string

	mu     sync.Mutex
	active *handle
	nextID uint64
	closed bool

	events    chan Event
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSupervisor creates a supervisor that runs processes in dir
func NewSupervisor(dir string) *Supervisor {
	return &Supervisor{
		dir:    dir,
		events: make(chan Event, eventBuffer),
		quit:   make(chan struct{}),
	}
}

// Events returns the channel all process events are delivered on
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Done is closed when the supervisor has been closed
func (s *Supervisor) Done() <-chan struct{} {
	return s.quit
}

// Active returns the currently running process, or nil
func (s *Supervisor) Active() Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active
}

// Start cancels the running process, if any, and spawns argv.
// Spawn failures are reported through an ExitEvent like any other exit.
func (s *Supervisor) Start(argv []string) Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Cancel()
		s.active = nil
	}

	s.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	h := newHandle(s.nextID, cancel)

	if s.closed {
		h.Cancel()
		close(h.done)
		return h
	}
	s.active = h

	if len(argv) == 0 {
		s.wg.Add(1)
		go s.failed(h, errors.New("empty command"))
		return h
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.wg.Add(1)
		go s.failed(h, err)
		return h
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.wg.Add(1)
		go s.failed(h, err)
		return h
	}
	if err := cmd.Start(); err != nil {
		s.wg.Add(1)
		go s.failed(h, err)
		return h
	}

	log.Printf("matcher[%d]: started %s", h.id, strings.Join(argv, " "))

	s.wg.Add(1)
	go s.run(h, cmd, stdout, stderr)
	return h
}

// Cancel terminates p. Safe to call with stale or finished processes.
func (s *Supervisor) Cancel(p Process) {
	if p == nil {
		return
	}
	p.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.id == p.ID() {
		s.active = nil
	}
}

// Close cancels the running process and stops event delivery.
// It returns once every process goroutine has finished.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.active != nil {
			s.active.Cancel()
			s.active = nil
		}
		s.mu.Unlock()
		close(s.quit)
	})
	s.wg.Wait()
}

func (s *Supervisor) run(h *handle, cmd *exec.Cmd, stdout, stderr io.Reader) {
	defer s.wg.Done()
	defer close(h.done)

	var lines int
	errOut := &cappedBuffer{max: maxStderrBytes}

	// Both pipes must be drained before Wait
	var g errgroup.Group
	g.Go(func() error {
		n, err := s.pump(h, stdout)
		lines = n
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(errOut, stderr)
		return err
	})
	if err := g.Wait(); err != nil && !h.cancelled() {
		log.Printf("matcher[%d]: failed to read output: %v", h.id, err)
	}

	waitErr := cmd.Wait()
	code := exitCode(h, waitErr)
	outcome := Classify(code, lines)

	diag := errOut.String()
	if diag != "" {
		log.Printf("matcher[%d]: stderr: %s", h.id, strings.TrimSpace(diag))
	}
	if code != nil && *code == ExitInternalError {
		log.Printf("matcher[%d]: %s", h.id, outcome.Message)
	}

	s.clearActive(h)
	s.emit(ExitEvent{ID: h.id, Code: code, Outcome: outcome, Stderr: diag})
}

func (s *Supervisor) failed(h *handle, err error) {
	defer s.wg.Done()
	defer close(h.done)

	var ev ExitEvent
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		code := ExitNotFound
		ev = ExitEvent{ID: h.id, Code: &code, Outcome: Classify(&code, 0)}
	} else {
		ev = ExitEvent{
			ID: h.id,
			Outcome: domain.Outcome{
				Kind:    domain.OutcomeFatal,
				Message: fmt.Sprintf("failed to start search: %v", err),
			},
		}
	}
	log.Printf("matcher[%d]: failed to start: %v", h.id, err)

	s.clearActive(h)
	s.emit(ev)
}

// pump reads stdout in chunks and emits the complete lines of each chunk.
// A trailing partial line is carried over to the next chunk.
func (s *Supervisor) pump(h *handle, r io.Reader) (int, error) {
	buf := make([]byte, chunkSize)
	var carry []byte
	count := 0

	flush := func(data []byte) {
		lines := splitLines(data)
		if len(lines) == 0 {
			return
		}
		count += len(lines)
		if h.cancelled() {
			return
		}
		select {
		case s.events <- LinesEvent{ID: h.id, Lines: lines}:
		case <-h.stop:
		case <-s.quit:
		}
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			if idx := bytes.LastIndexByte(data, '\n'); idx >= 0 {
				flush(data[:idx])
				carry = append([]byte(nil), data[idx+1:]...)
			} else {
				carry = data
			}
		}
		if err != nil {
			if len(carry) > 0 {
				flush(carry)
			}
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}
	}
}

func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.quit:
	}
}

func (s *Supervisor) clearActive(h *handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == h {
		s.active = nil
	}
}

func exitCode(h *handle, waitErr error) *int {
	if h.cancelled() {
		return nil
	}
	if waitErr == nil {
		code := 0
		return &code
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		// -1 means terminated by a signal
		if c := exitErr.ExitCode(); c >= 0 {
			return &c
		}
		return nil
	}
	log.Printf("matcher[%d]: wait failed: %v", h.id, waitErr)
	return nil
}

func splitLines(data []byte) []string {
	parts := strings.Split(string(data), "\n")
	lines := parts[:0]
	for _, p := range parts {
		if strings.TrimSuffix(p, "\r") == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// cappedBuffer keeps the first max bytes written and discards the rest
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	return c.buf.String()
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"quickgrep/internal/config"
	"quickgrep/internal/editor"
	"quickgrep/internal/eventbus"
	"quickgrep/internal/matcher"
	"quickgrep/internal/ui"
	"quickgrep/internal/workspace"
)

const (
	configFileHint = config.ProjectFileName

	// e2eEnv makes the UI print a readiness marker for terminal tests
	e2eEnv = "QUICKGREP_E2E_TEST"

	// exitCancelled is returned when the session ends without a selection
	exitCancelled = 130
)

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "quickgrep", "quickgrep.log")
}

func setupLogging(path string) func() {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		// Never write logs over the TUI
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(logFile)
	return func() { logFile.Close() }
}

// flagOverrides are the command line values that win over the config file
type flagOverrides struct {
	executable string
	extraArgs  []string
	hasArgs    bool
	exclude    []string
}

func overridesFrom(c *cli.Context) (flagOverrides, error) {
	o := flagOverrides{
		executable: c.String("rg"),
		exclude:    c.StringSlice("exclude"),
	}
	if c.IsSet("rg-args") {
		args, err := matcher.SplitArgs(c.String("rg-args"))
		if err != nil {
			return o, err
		}
		o.extraArgs = args
		o.hasArgs = true
	}
	return o, nil
}

func (o flagOverrides) apply(cfg *config.Config) {
	if o.executable != "" {
		cfg.Matcher.Executable = o.executable
	}
	if o.hasArgs {
		cfg.Matcher.ExtraArgs = o.extraArgs
	}
	cfg.Matcher.Exclude = append(cfg.Matcher.Exclude, o.exclude...)
}

// loadConfig reads the service's file (defaults when it is missing) and
// layers the environment and the flags on top.
func loadConfig(svc config.ConfigService, o flagOverrides) (*config.Config, error) {
	cfg, err := svc.Load()
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)
	o.apply(cfg)
	return cfg, nil
}

// writeConfig saves the file config with the flags applied. The environment
// is left out so the file does not pin a per-shell override.
func writeConfig(svc config.ConfigService, o flagOverrides) error {
	cfg, err := svc.Load()
	if err != nil {
		return err
	}
	o.apply(cfg)
	if err := svc.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", svc.Path())
	return nil
}

func newBuilder(cfg *config.Config, base string) (*matcher.Builder, error) {
	roots, err := workspace.ResolveRoots(base, cfg.Matcher.Roots)
	if err != nil {
		return nil, err
	}
	return matcher.NewBuilder(cfg.Matcher, roots), nil
}

func run(c *cli.Context, initialQuery string) error {
	closeLog := setupLogging(c.String("log-file"))
	defer closeLog()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	dir := c.String("dir")
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return cli.Exit(fmt.Sprintf("Error getting current directory: %v", err), 1)
		}
	}
	ws, err := workspace.Detect(ctx, dir, c.Bool("git-root"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log.Printf("Workspace: base=%s repo=%s", ws.Base, ws.RepoRoot)

	overrides, err := overridesFrom(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	bus := eventbus.New()
	defer bus.Close()
	subscribeLogging(bus)

	configPath := c.String("config")
	if configPath == "" {
		configPath = config.Locate(ws.Base)
	}
	configSvc := config.NewConfigServiceWithBus(bus, configPath)

	if c.Bool("write-config") {
		if err := writeConfig(configSvc, overrides); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	cfg, err := loadConfig(configSvc, overrides)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	builder, err := newBuilder(cfg, ws.Base)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	sup := matcher.NewSupervisor(ws.Base)
	defer sup.Close()

	files := editor.NewFileCache(ws.Base, cfg.Preview.MaxFileBytes)
	nav := editor.NewNavigator(files, editor.NewRenderer(cfg.Preview.ContextLines))
	ops := ui.NewLocationOps(editor.NewPager(files, cfg.Preview.ContextLines))

	model := ui.NewModel(ui.Options{
		Matcher:      sup,
		Args:         builder,
		Navigator:    nav,
		Ops:          ops,
		Bus:          bus,
		Session:      cfg.Session,
		InitialQuery: initialQuery,
		Ready:        os.Getenv(e2eEnv) == "1",
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	forwardErrors(bus, p)

	if configPath != "" {
		bus.Subscribe(eventbus.EventConfigChanged, func(e eventbus.DomainEvent) {
			reloadConfig(configSvc, overrides, ws.Base, bus, p)
		})
		if err := config.Watch(ctx, configPath, bus); err != nil {
			log.Printf("Config: not watching %s: %v", configPath, err)
		}
	}

	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		return cli.Exit(fmt.Sprintf("Error running program: %v", err), 1)
	}
	log.Printf("UI exited normally")

	loc, ok := model.Committed()
	if !ok {
		return cli.Exit("", exitCancelled)
	}

	if c.Bool("print") {
		return editor.Print(os.Stdout, loc)
	}
	launcher := editor.NewLauncher(cfg.Open.Command, ws.Base)
	if err := launcher.Open(ctx, loc); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// reloadConfig rebuilds the matcher arguments after the config file changed.
// Failures keep the running configuration.
func reloadConfig(svc config.ConfigService, o flagOverrides, base string, bus eventbus.EventBus, p *tea.Program) {
	path := svc.Path()
	cfg, err := loadConfig(svc, o)
	if err == nil {
		var builder *matcher.Builder
		if builder, err = newBuilder(cfg, base); err == nil {
			log.Printf("Config: reloaded %s", path)
			p.Send(ui.ConfigReloadedMsg{Args: builder, Session: cfg.Session})
			return
		}
	}
	log.Printf("Config: reload of %s failed: %v", path, err)
	bus.Publish(eventbus.ErrorEvent{Message: fmt.Sprintf("config reload failed: %v", err), Err: err})
}

// subscribeLogging records the config and session lifecycle in the log
func subscribeLogging(bus eventbus.EventBus) {
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ConfigLoadedEvent); ok {
			if event.Defaults {
				log.Printf("Config: %s not found, using defaults", event.Path)
				return
			}
			log.Printf("Config: loaded %s", event.Path)
		}
	})
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ConfigSavedEvent); ok {
			log.Printf("Config: saved %s", event.Path)
		}
	})
	bus.Subscribe(eventbus.EventSearchFailed, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SearchFailedEvent); ok {
			log.Printf("Session: search %q failed: %s", event.Query, event.Message)
		}
	})
	bus.Subscribe(eventbus.EventSearchCompleted, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SearchCompletedEvent); ok {
			log.Printf("Session: search %q found %d matches (truncated=%v)", event.Query, event.MatchCount, event.Truncated)
		}
	})
	bus.Subscribe(eventbus.EventSessionCommitted, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SessionCommittedEvent); ok {
			log.Printf("Session: committed %s for query %q", event.Location, event.Query)
		}
	})
	bus.Subscribe(eventbus.EventSessionCancelled, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SessionCancelledEvent); ok {
			log.Printf("Session: cancelled with query %q", event.Query)
		}
	})
}

// forwardErrors delivers background errors to the UI
func forwardErrors(bus eventbus.EventBus, p *tea.Program) {
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		go p.Send(ui.EventMsg{Event: e})
	})
}

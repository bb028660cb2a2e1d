package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickgrep/internal/eventbus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "rg", cfg.Matcher.Executable)
	assert.Equal(t, []string{"--smart-case", "--sort=path"}, cfg.Matcher.ExtraArgs)
	assert.Equal(t, DefaultMaxResults, cfg.Session.MaxResults)
	assert.Equal(t, time.Duration(0), cfg.Session.Debounce())
	assert.Equal(t, DefaultContextLines, cfg.Preview.ContextLines)
	assert.Equal(t, int64(DefaultMaxFileBytes), cfg.Preview.MaxFileBytes)
}

func TestLoadFromPathFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectFileName)
	content := `
[matcher]
exclude = ["**/vendor/**"]

[session]
debounce_ms = 40
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewConfigServiceWithBus(nil, path).LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"**/vendor/**"}, cfg.Matcher.Exclude)
	assert.Equal(t, 40*time.Millisecond, cfg.Session.Debounce())
	assert.Equal(t, "rg", cfg.Matcher.Executable)
	assert.Equal(t, DefaultExtraArgs(), cfg.Matcher.ExtraArgs)
	assert.Equal(t, DefaultMaxResults, cfg.Session.MaxResults)
}

func TestLoadFromPathKeepsExplicitEmptyExtraArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[matcher]\nextra_args = []\n"), 0644))

	cfg, err := NewConfigServiceWithBus(nil, path).LoadFromPath(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Matcher.ExtraArgs)
	assert.NotNil(t, cfg.Matcher.ExtraArgs)
}

func TestLoadFromPathErrors(t *testing.T) {
	svc := NewConfigServiceWithBus(nil, "")

	_, err := svc.LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[matcher\nexecutable ="), 0644))
	_, err = svc.LoadFromPath(bad)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	svc := NewConfigServiceWithBus(bus, path)

	cfg := DefaultConfig()
	cfg.Matcher.Executable = "/opt/bin/rg"
	cfg.Matcher.Exclude = []string{"**/dist/**"}
	cfg.Matcher.Roots = []string{"src"}
	cfg.Open.Command = "code -g {path}:{line}:{col}"
	require.NoError(t, svc.Save(cfg))

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, path, svc.Path())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	svc := NewConfigServiceWithBus(nil, filepath.Join(t.TempDir(), "none.toml"))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadAndSavePublishEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	events := make(chan eventbus.DomainEvent, 8)
	for _, et := range []eventbus.EventType{eventbus.EventConfigLoaded, eventbus.EventConfigSaved} {
		bus.Subscribe(et, func(e eventbus.DomainEvent) { events <- e })
	}
	next := func() eventbus.DomainEvent {
		select {
		case e := <-events:
			return e
		case <-time.After(3 * time.Second):
			t.Fatal("no config event")
			return nil
		}
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	svc := NewConfigServiceWithBus(bus, path)

	_, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, eventbus.ConfigLoadedEvent{Path: path, Defaults: true}, next())

	require.NoError(t, svc.Save(DefaultConfig()))
	assert.Equal(t, eventbus.ConfigSavedEvent{Path: path}, next())

	_, err = svc.Load()
	require.NoError(t, err)
	assert.Equal(t, eventbus.ConfigLoadedEvent{Path: path}, next())
}

func TestEmptyPathUsesUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, UserConfigPath(), NewConfigServiceWithBus(nil, "").Path())
}

func TestLocatePrefersProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	assert.Equal(t, "", Locate(dir))

	project := filepath.Join(dir, ProjectFileName)
	require.NoError(t, os.WriteFile(project, []byte("version = 1\n"), 0644))
	assert.Equal(t, project, Locate(dir))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(ExecutableEnv, "/usr/local/bin/rg")

	cfg := DefaultConfig()
	ApplyEnv(cfg)
	assert.Equal(t, "/usr/local/bin/rg", cfg.Matcher.Executable)
}

func TestWatchPublishesChanges(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	path := filepath.Join(t.TempDir(), ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n"), 0644))

	changed := make(chan string, 8)
	bus.Subscribe(eventbus.EventConfigChanged, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ConfigChangedEvent); ok {
			changed <- ev.Path
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, path, bus))

	require.NoError(t, os.WriteFile(path, []byte("version = 1\n[session]\nmax_results = 10\n"), 0644))

	select {
	case got := <-changed:
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event")
	}
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"quickgrep/internal/eventbus"
)

// ProjectFileName is the per-directory config file
const ProjectFileName = ".quickgrep.toml"

// ExecutableEnv overrides the matcher executable
const ExecutableEnv = "QUICKGREP_RG"

// ErrNotFound is returned when a config file does not exist
var ErrNotFound = errors.New("config file not found")

// Config represents the application configuration
type Config struct {
	Version int           `toml:"version"`
	Matcher MatcherConfig `toml:"matcher"`
	Session SessionConfig `toml:"session"`
	Preview PreviewConfig `toml:"preview"`
	Open    OpenConfig    `toml:"open"`
}

// MatcherConfig controls how the search executable is invoked
type MatcherConfig struct {
	Executable string   `toml:"executable"`
	ExtraArgs  []string `toml:"extra_args"`
	Exclude    []string `toml:"exclude"` // globs passed as negated --glob
	Roots      []string `toml:"roots"`   // empty = workspace root; may contain globs
}

// SessionConfig controls the search session
type SessionConfig struct {
	MaxResults int `toml:"max_results"`
	DebounceMs int `toml:"debounce_ms"`
}

// Debounce returns the keystroke debounce delay
func (s SessionConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// PreviewConfig controls the preview pane
type PreviewConfig struct {
	ContextLines int   `toml:"context_lines"`
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

// OpenConfig controls what happens with a committed match
type OpenConfig struct {
	// Command is a template with {path}, {line} and {col} placeholders.
	// Empty means $EDITOR +{line} {path}.
	Command string `toml:"command"`
}

// Defaults
const (
	DefaultExecutable   = "rg"
	DefaultMaxResults   = 5000
	DefaultContextLines = 8
	DefaultMaxFileBytes = 512 * 1024
)

// DefaultExtraArgs are the user-adjustable matcher flags used when none are configured
func DefaultExtraArgs() []string {
	return []string{"--smart-case", "--sort=path"}
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigServiceWithBus creates a config service for path with event bus
// support. An empty path means the user config file; bus may be nil.
func NewConfigServiceWithBus(bus eventbus.EventBus, path string) ConfigService {
	if path == "" {
		path = UserConfigPath()
	}
	return &configService{bus: bus, filePath: path}
}

// UserConfigPath returns the per-user config file location
func UserConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "quickgrep", "config.toml")
}

// Locate returns the config file that applies to dir: the project file if
// present, then the user file. It returns "" when neither exists.
func Locate(dir string) string {
	candidates := []string{
		filepath.Join(dir, ProjectFileName),
		UserConfigPath(),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from the service's file, falling back to defaults
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	missing := errors.Is(err, ErrNotFound)
	if missing {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath, Defaults: missing})
	}
	return cfg, nil
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	applyDefaults(cfg)
	return cfg
}

// ApplyEnv applies environment overrides
func ApplyEnv(cfg *Config) {
	if exe := os.Getenv(ExecutableEnv); exe != "" {
		log.Printf("Config: matcher executable overridden by %s=%s", ExecutableEnv, exe)
		cfg.Matcher.Executable = exe
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Matcher.Executable == "" {
		cfg.Matcher.Executable = DefaultExecutable
	}
	// An explicit empty list in the file disables the default flags
	if cfg.Matcher.ExtraArgs == nil {
		cfg.Matcher.ExtraArgs = DefaultExtraArgs()
	}
	if cfg.Session.MaxResults <= 0 {
		cfg.Session.MaxResults = DefaultMaxResults
	}
	if cfg.Session.DebounceMs < 0 {
		cfg.Session.DebounceMs = 0
	}
	if cfg.Preview.ContextLines <= 0 {
		cfg.Preview.ContextLines = DefaultContextLines
	}
	if cfg.Preview.MaxFileBytes <= 0 {
		cfg.Preview.MaxFileBytes = DefaultMaxFileBytes
	}
}

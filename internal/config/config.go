package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/storage"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration for tst, stored in ~/.tst/config.yaml.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	// Timezone is the IANA zone used for calendar dates. Empty = system local.
	Timezone string `yaml:"timezone"`
	// StartWhileTracking decides what "start" does when a session is running:
	// reject, overwrite or complete.
	StartWhileTracking string    `yaml:"start_while_tracking"`
	Log                LogConfig `yaml:"log"`
}

// StorageConfig selects the blob store holding the session data.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	Key     string `yaml:"key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultKey                = "sleep-store"
	DefaultStartWhileTracking = "reject"
	DefaultLogLevel           = "warn"
)

var startPolicies = []string{"reject", "overwrite", "complete"}

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Key:     DefaultKey,
		},
		StartWhileTracking: DefaultStartWhileTracking,
		Log:                LogConfig{Level: DefaultLogLevel},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# tst configuration - ~/.tst/config.yaml
#
# All settings are optional; the defaults below work out of the box.

storage:
  # Where sleep sessions are kept: "file" (one JSON file) or "sqlite".
  backend: file
  # Data directory. Empty means the directory holding this file.
  dir: ""
  # Name under which the session data is stored.
  key: sleep-store

# IANA timezone used to assign sessions to calendar days, e.g. "Europe/Berlin".
# Leave empty to use the system timezone.
timezone: ""

# What "tst start" does while a session is already running:
#   reject    - refuse and keep the running session (default)
#   overwrite - discard the running session and start a new one
#   complete  - stop the running session, then start a new one
start_while_tracking: reject

log:
  # debug, info, warn or error. --verbose forces debug.
  level: warn
`

// FilePath returns the path to ~/.tst/config.yaml.
func FilePath() (string, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads ~/.tst/config.yaml, creating it with annotated defaults on first run.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file is created from the
// annotated template and the defaults are returned.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return withDirDefault(Default(), path), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := Default()
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = def.Storage.Key
	}
	if cfg.StartWhileTracking == "" {
		cfg.StartWhileTracking = def.StartWhileTracking
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg = withDirDefault(cfg, path)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// withDirDefault places data next to the config file unless a dir is set.
func withDirDefault(cfg Config, path string) Config {
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = filepath.Dir(path)
	}
	return cfg
}

// Validate reports unknown backends, policies, levels and time zones.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalid, c.Storage.Backend)
	}
	if !slices.Contains(startPolicies, c.StartWhileTracking) {
		return fmt.Errorf("%w: start_while_tracking %q (want one of %s)",
			ErrInvalid, c.StartWhileTracking, strings.Join(startPolicies, ", "))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local when empty.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelWarn, fmt.Errorf("%w: log.level %q", ErrInvalid, level)
	}
	return l, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

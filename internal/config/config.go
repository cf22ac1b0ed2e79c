// internal/config/config.go
//
// This package handles configuration and the .deckhand directory structure.
// Every deck presented with deckhand gets a .deckhand/ folder in its root
// holding the deck index, logs and persisted sessions.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DeckhandDir is the name of the directory we create in each deck
	DeckhandDir = ".deckhand"

	// DefaultAutoConfigureDelay defers automatic navigation setup so slide
	// frontmatter gets the first chance to configure targets.
	DefaultAutoConfigureDelay = 50 * time.Millisecond

	defaultSlidesDir  = "slides"
	defaultRemoteHost = "127.0.0.1"
	defaultRemotePort = 8765
)

const defaultDeckConfigYAML = `# deckhand deck configuration
version: 1
title: Untitled deck

# Directory holding the slide documents, relative to the deck root.
slides_dir: slides

# bare: "02-tools.md"; parent-relative: "../02-tools.md"
path_style: bare

# Ordered slide index. Position defines deck order.
slides: []
#  - id: 01-intro
#    path: 01-intro.md
#    title: Introduction

session:
  # memory | file | sqlite
  store: memory
  # Set to resume a persisted session.
  id: ""
  keep: false

navigation:
  auto_configure_delay: 50ms

remote:
  enabled: false
  host: 127.0.0.1
  port: 8765

watch:
  enabled: true
`

// SlideEntry declares one slide in the deck index.
type SlideEntry struct {
	ID    string `yaml:"id"`
	Path  string `yaml:"path"`
	Title string `yaml:"title,omitempty"`
}

// SessionConfig selects the visit ledger backend.
type SessionConfig struct {
	Store string `yaml:"store"`
	ID    string `yaml:"id,omitempty"`
	Keep  bool   `yaml:"keep"`
}

// NavigationConfig tunes the navigation controller.
type NavigationConfig struct {
	AutoConfigureDelay time.Duration `yaml:"auto_configure_delay"`
}

// RemoteConfig captures the remote control bridge settings.
type RemoteConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// WatchConfig toggles live reload of slide files.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DeckConfig models .deckhand/config.yaml.
type DeckConfig struct {
	Version    int              `yaml:"version"`
	Title      string           `yaml:"title"`
	SlidesDir  string           `yaml:"slides_dir"`
	PathStyle  string           `yaml:"path_style"`
	Slides     []SlideEntry     `yaml:"slides"`
	Session    SessionConfig    `yaml:"session"`
	Navigation NavigationConfig `yaml:"navigation"`
	Remote     RemoteConfig     `yaml:"remote"`
	Watch      WatchConfig      `yaml:"watch"`
}

// envOverrides lists the environment variables that win over the file.
type envOverrides struct {
	Store         string `env:"DECKHAND_STORE"`
	SessionID     string `env:"DECKHAND_SESSION"`
	PathStyle     string `env:"DECKHAND_PATH_STYLE"`
	SlidesDir     string `env:"DECKHAND_SLIDES_DIR"`
	RemoteEnabled string `env:"DECKHAND_REMOTE_ENABLED"`
	RemoteHost    string `env:"DECKHAND_REMOTE_HOST"`
	RemotePort    int    `env:"DECKHAND_REMOTE_PORT"`
}

// Config holds the runtime configuration for deckhand.
type Config struct {
	// DeckDir is the directory the deck lives in
	DeckDir string

	// DeckhandDir is DeckDir/.deckhand
	DeckhandDir string

	Deck DeckConfig
}

// InitDeckhandDir creates the .deckhand directory structure in the given deck
// directory and writes a starter config.yaml if none exists.
//
// Structure created:
// .deckhand/
// ├── config.yaml
// ├── logs/      <- journey.log
// ├── sessions/  <- file-backed visit ledgers
// └── state/     <- sqlite session database
func InitDeckhandDir(deckDir string) error {
	root := filepath.Join(deckDir, DeckhandDir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "sessions"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureDeckConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads the deck configuration and applies environment overrides.
func NewConfig(deckDir string) (*Config, error) {
	abs, err := filepath.Abs(deckDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve deck dir: %w", err)
	}
	cfg := &Config{
		DeckDir:     abs,
		DeckhandDir: filepath.Join(abs, DeckhandDir),
		Deck:        defaultDeckConfig(),
	}
	if err := cfg.loadDeckConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location for the deck config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DeckhandDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeckhandDir, "logs")
}

// SessionsDir returns where file-backed sessions are written
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DeckhandDir, "sessions")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.DeckhandDir, "state")
}

// SlidesDir returns the absolute slide directory.
func (c *Config) SlidesDir() string {
	return resolvePath(c.DeckDir, c.Deck.SlidesDir)
}

// SlidePath resolves a catalog path to a file inside the slides directory.
func (c *Config) SlidePath(path string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(path), "../")
	trimmed = strings.TrimPrefix(trimmed, "/")
	return filepath.Join(c.SlidesDir(), filepath.FromSlash(trimmed))
}

// AutoConfigureDelay returns the deferred auto configuration delay.
func (c *Config) AutoConfigureDelay() time.Duration {
	return c.Deck.Navigation.AutoConfigureDelay
}

func (c *Config) loadDeckConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultDeckConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Deck = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	d := &c.Deck
	if v := strings.TrimSpace(overrides.Store); v != "" {
		d.Session.Store = v
	}
	if v := strings.TrimSpace(overrides.SessionID); v != "" {
		d.Session.ID = v
	}
	if v := strings.TrimSpace(overrides.PathStyle); v != "" {
		d.PathStyle = v
	}
	if v := strings.TrimSpace(overrides.SlidesDir); v != "" {
		d.SlidesDir = v
	}
	if v := strings.TrimSpace(overrides.RemoteEnabled); v != "" {
		enabled := isTruthy(v)
		d.Remote.Enabled = &enabled
	}
	if v := strings.TrimSpace(overrides.RemoteHost); v != "" {
		d.Remote.Host = v
	}
	if overrides.RemotePort > 0 {
		d.Remote.Port = overrides.RemotePort
	}
	d.normalize()
	if err := d.validate(); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	return nil
}

func defaultDeckConfig() DeckConfig {
	dc := DeckConfig{}
	dc.applyDefaults()
	dc.Watch.Enabled = true
	return dc
}

func (dc *DeckConfig) applyDefaults() {
	if dc.Version == 0 {
		dc.Version = 1
	}
	if strings.TrimSpace(dc.SlidesDir) == "" {
		dc.SlidesDir = defaultSlidesDir
	}
	if strings.TrimSpace(dc.PathStyle) == "" {
		dc.PathStyle = "bare"
	}
	if strings.TrimSpace(dc.Session.Store) == "" {
		dc.Session.Store = "memory"
	}
	if dc.Navigation.AutoConfigureDelay <= 0 {
		dc.Navigation.AutoConfigureDelay = DefaultAutoConfigureDelay
	}
	if strings.TrimSpace(dc.Remote.Host) == "" {
		dc.Remote.Host = defaultRemoteHost
	}
	if dc.Remote.Port == 0 {
		dc.Remote.Port = defaultRemotePort
	}
}

func (dc *DeckConfig) normalize() {
	dc.Title = strings.TrimSpace(dc.Title)
	dc.SlidesDir = strings.TrimSpace(dc.SlidesDir)
	dc.PathStyle = strings.ToLower(strings.TrimSpace(dc.PathStyle))
	dc.Session.Store = strings.ToLower(strings.TrimSpace(dc.Session.Store))
	dc.Session.ID = strings.TrimSpace(dc.Session.ID)
	dc.Remote.Host = strings.TrimSpace(dc.Remote.Host)
	for i := range dc.Slides {
		dc.Slides[i].ID = strings.TrimSpace(dc.Slides[i].ID)
		dc.Slides[i].Path = strings.TrimSpace(dc.Slides[i].Path)
		dc.Slides[i].Title = strings.TrimSpace(dc.Slides[i].Title)
	}
}

func (dc *DeckConfig) validate() error {
	if dc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch dc.PathStyle {
	case "bare", "parent-relative":
	default:
		return fmt.Errorf("path_style must be 'bare' or 'parent-relative'")
	}
	switch dc.Session.Store {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("session.store must be 'memory', 'file' or 'sqlite'")
	}
	for i, s := range dc.Slides {
		if s.ID == "" {
			return fmt.Errorf("slides[%d]: id is required", i)
		}
		if s.Path == "" {
			return fmt.Errorf("slides[%d]: path is required", i)
		}
	}
	if dc.Remote.Port < 0 || dc.Remote.Port > 65535 {
		return fmt.Errorf("remote.port must be between 1 and 65535")
	}
	return nil
}

// RemoteEnabled reports whether the remote bridge should start.
func (c *Config) RemoteEnabled() bool {
	return c.Deck.Remote.Enabled != nil && *c.Deck.Remote.Enabled
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureDeckConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultDeckConfigYAML), 0o644)
}

// SaveDeckConfig writes the current deck config back to disk.
func (c *Config) SaveDeckConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Deck.applyDefaults()
	c.Deck.normalize()
	if err := c.Deck.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.DeckhandDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure deckhand dir: %w", err)
	}
	data, err := yaml.Marshal(c.Deck)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write deck config: %w", err)
	}
	return nil
}

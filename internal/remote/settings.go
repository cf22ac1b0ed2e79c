package remote

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/deckhand/internal/config"
)

// Defaults for a remote bound to the presenter's own machine.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8765
	DefaultReadTimeout   = 15 * time.Second
	DefaultWriteTimeout  = 15 * time.Second
	DefaultIdleTimeout   = 60 * time.Second
	DefaultPingInterval  = 30 * time.Second
	DefaultMaxFrameBytes = 4 << 10
	DefaultSendBuffer    = 16
)

// Settings configures the remote control listener and its websocket clients.
type Settings struct {
	Enabled bool
	Host    string
	// Port 0 asks the kernel for a free port; BaseURL reports the result.
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// PingInterval is the websocket keepalive period. A client that misses
	// two pings is dropped.
	PingInterval time.Duration
	// MaxFrameBytes caps inbound command frames.
	MaxFrameBytes int64
	// SendBuffer is the per-client queue of outbound frames. A full queue
	// drops state frames instead of stalling the presenter.
	SendBuffer int
}

// SettingsFromConfig reads the remote block of the deck config. Environment
// overrides (DECKHAND_REMOTE_*) are already folded in by config.NewConfig.
func SettingsFromConfig(cfg *config.Config) Settings {
	var settings Settings
	if cfg != nil {
		settings.Enabled = cfg.RemoteEnabled()
		settings.Host = cfg.Deck.Remote.Host
		settings.Port = cfg.Deck.Remote.Port
	}
	if settings.Port == 0 {
		settings.Port = DefaultPort
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s.Host = strings.TrimSpace(s.Host); s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port < 0 || s.Port > 65535 {
		s.Port = DefaultPort
	}
	s.ReadTimeout = positive(s.ReadTimeout, DefaultReadTimeout)
	s.WriteTimeout = positive(s.WriteTimeout, DefaultWriteTimeout)
	s.IdleTimeout = positive(s.IdleTimeout, DefaultIdleTimeout)
	s.PingInterval = positive(s.PingInterval, DefaultPingInterval)
	s.MaxFrameBytes = positive(s.MaxFrameBytes, DefaultMaxFrameBytes)
	s.SendBuffer = positive(s.SendBuffer, DefaultSendBuffer)
}

func positive[T time.Duration | int | int64](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

// Address returns the bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the configured HTTP base URL.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

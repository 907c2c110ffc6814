package tui

import (
	"time"

	"github.com/Veraticus/bookkeeper/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme           themes.Theme
	Width           int
	Height          int
	RefreshInterval time.Duration
	RecentLimit     int
	AltScreen       bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:           themes.Default,
		Width:           80,
		Height:          24,
		RefreshInterval: time.Minute,
		RecentLimit:     10,
		AltScreen:       true,
	}
}

// WithTheme sets the theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithRefreshInterval sets how often the dashboard reloads on its own.
// Zero disables automatic refresh.
func WithRefreshInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.RefreshInterval = interval
	}
}

// WithRecentLimit sets how many recent expenses are listed.
func WithRecentLimit(n int) Option {
	return func(c *Config) {
		c.RecentLimit = n
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}

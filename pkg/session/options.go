package session

import "log/slog"

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithConfig sets custom configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithCookieCodec sets a custom cookie codec. Without it the manager builds
// one from its config.
func WithCookieCodec(codec *CookieCodec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// WithLogger sets the logger for swallowed failures (touch, expiry cleanup,
// destroy). The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

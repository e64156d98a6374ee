package session

import "time"

// Config holds session configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"app_session"`

	// TTL is the fixed sliding expiry window. Creation and every refresh
	// set expiry to now + TTL.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// TaskQueueSize bounds the background queue for activity touches and
	// expiry deletions.
	TaskQueueSize int `env:"SESSION_TASK_QUEUE_SIZE" envDefault:"1024"`

	// SecureCookies enables the Secure flag on session cookies. Leave off
	// outside production so plaintext HTTP works locally.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:    "app_session",
		TTL:           24 * time.Hour,
		TaskQueueSize: 1024,
		SecureCookies: false,
	}
}

package session

import (
	"net/http"
	"time"

	"github.com/sosodev/duration"
)

// Default cookie names; deployments override them via environment.
const (
	DefaultSessionCookieName = "session"
	DefaultUserIDCookieName  = "user_id"
)

// DefaultExpiresIn is the cookie lifetime used when a flow attaches an
// explicit expiry (the 2FA verification path) and none is configured.
const DefaultExpiresIn = 3600 * time.Second

// Config controls how session cookies are issued.
type Config struct {
	SessionCookieName string
	UserIDCookieName  string

	// HTTPOnly and Secure apply to both cookies. Secure should be off
	// only in local development.
	HTTPOnly bool
	Secure   bool

	// ExpiresIn is the explicit cookie lifetime for flows that attach
	// one. Zero falls back to DefaultExpiresIn.
	ExpiresIn time.Duration
}

// DefaultConfig returns a Config with production defaults
func DefaultConfig() Config {
	return Config{
		SessionCookieName: DefaultSessionCookieName,
		UserIDCookieName:  DefaultUserIDCookieName,
		HTTPOnly:          true,
		Secure:            true,
		ExpiresIn:         DefaultExpiresIn,
	}
}

func (c Config) sessionCookieName() string {
	if c.SessionCookieName == "" {
		return DefaultSessionCookieName
	}
	return c.SessionCookieName
}

func (c Config) userIDCookieName() string {
	if c.UserIDCookieName == "" {
		return DefaultUserIDCookieName
	}
	return c.UserIDCookieName
}

func (c Config) expiresIn() time.Duration {
	if c.ExpiresIn <= 0 {
		return DefaultExpiresIn
	}
	return c.ExpiresIn
}

func (c Config) sameSite() http.SameSite {
	return http.SameSiteLaxMode
}

// ParseExpiry parses a cookie lifetime from configuration. Accepts ISO
// 8601 durations ("PT1H") and Go durations ("1h"); a bare integer is
// taken as seconds.
func ParseExpiry(s string) (time.Duration, error) {
	if isoDuration, err := duration.Parse(s); err == nil {
		return isoDuration.ToTimeDuration(), nil
	}
	if goDuration, err := time.ParseDuration(s); err == nil {
		return goDuration, nil
	}
	seconds, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, err
	}
	return seconds, nil
}

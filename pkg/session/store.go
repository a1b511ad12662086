package session

import (
	"log/slog"
	"net/http"
	"time"
)

// Revalidator invalidates cached auth-dependent views after the session
// state changes. Path is the layout root affected ("/").
type Revalidator interface {
	Revalidate(path string)
}

// RevalidatorFunc adapts a function to the Revalidator interface.
type RevalidatorFunc func(path string)

// Revalidate implements Revalidator
func (f RevalidatorFunc) Revalidate(path string) {
	f(path)
}

// Store writes and clears the session cookie pair. It is the only writer
// of these cookies in the whole service.
type Store struct {
	config      Config
	revalidator Revalidator
}

// Option configures a Store
type Option func(*Store)

// WithRevalidator installs the cache invalidation hook.
func WithRevalidator(r Revalidator) Option {
	return func(s *Store) {
		s.revalidator = r
	}
}

// NewStore creates a Store from config.
func NewStore(config Config, opts ...Option) *Store {
	s := &Store{config: config}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set writes the session token and user-id cookies as one atomic pair.
// withExpiry attaches an explicit expiry (the 2FA verification contract);
// otherwise the cookies live until the browser session ends.
func (s *Store) Set(w http.ResponseWriter, token, userID string, withExpiry bool) {
	var expires time.Time
	if withExpiry {
		expires = time.Now().Add(s.config.expiresIn())
	}

	s.setCookie(w, s.config.sessionCookieName(), token, expires)
	s.setCookie(w, s.config.userIDCookieName(), userID, expires)
	s.revalidate()
}

// Clear deletes both cookies. Safe to call when no session exists.
func (s *Store) Clear(w http.ResponseWriter) {
	s.clearCookie(w, s.config.sessionCookieName())
	s.clearCookie(w, s.config.userIDCookieName())
	s.revalidate()
}

// Token reads the session token from the inbound request, or "".
func (s *Store) Token(r *http.Request) string {
	return cookieValue(r, s.config.sessionCookieName())
}

// UserID reads the user-id marker from the inbound request, or "".
func (s *Store) UserID(r *http.Request) string {
	return cookieValue(r, s.config.userIDCookieName())
}

func (s *Store) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		Value:    value,
		Expires:  expires,
		HttpOnly: s.config.HTTPOnly,
		Secure:   s.config.Secure,
		SameSite: s.config.sameSite(),
	})
}

func (s *Store) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: s.config.HTTPOnly,
		Secure:   s.config.Secure,
		SameSite: s.config.sameSite(),
	})
}

func (s *Store) revalidate() {
	if s.revalidator == nil {
		return
	}
	s.revalidator.Revalidate("/")
	slog.Debug("auth-dependent views revalidated")
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

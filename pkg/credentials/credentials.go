package credentials

import (
	"net/http"
	"strings"
)

// Default cookie names. Deployments override them via Config.
const (
	DefaultSessionCookieName = "session"
	DefaultXSRFCookieName    = "XSRF-TOKEN"
)

// XSRFHeaderName is the header the upstream API expects the CSRF cookie
// value to be echoed on.
const XSRFHeaderName = "x-xsrf-token"

// Config holds the cookie names a Source reads from.
type Config struct {
	SessionCookieName string
	XSRFCookieName    string
}

// DefaultConfig returns a Config with the default cookie names
func DefaultConfig() Config {
	return Config{
		SessionCookieName: DefaultSessionCookieName,
		XSRFCookieName:    DefaultXSRFCookieName,
	}
}

func (c Config) sessionCookieName() string {
	if c.SessionCookieName == "" {
		return DefaultSessionCookieName
	}
	return c.SessionCookieName
}

func (c Config) xsrfCookieName() string {
	if c.XSRFCookieName == "" {
		return DefaultXSRFCookieName
	}
	return c.XSRFCookieName
}

// HeaderSet is the set of credential headers to merge into an outbound
// request. Empty fields are not applied.
type HeaderSet struct {
	Authorization string
	XSRFToken     string
	Cookie        string
	Referer       string
}

// Apply merges the header set into req. Existing values are overwritten.
func (h HeaderSet) Apply(req *http.Request) {
	if h.Authorization != "" {
		req.Header.Set("Authorization", h.Authorization)
	}
	if h.XSRFToken != "" {
		req.Header.Set(XSRFHeaderName, h.XSRFToken)
	}
	if h.Cookie != "" {
		req.Header.Set("Cookie", h.Cookie)
	}
	if h.Referer != "" {
		req.Header.Set("Referer", h.Referer)
	}
}

// Source resolves credential headers for one execution context.
// skipAuth suppresses the Authorization header for endpoints that must
// run unauthenticated (login, register, forgot-password).
type Source interface {
	Resolve(skipAuth bool) HeaderSet
}

// ServerSource resolves credentials from an inbound browser request.
// The forwarded Cookie header is re-attached verbatim so the upstream
// API sees exactly what the browser sent.
type ServerSource struct {
	config  Config
	request *http.Request
}

// NewServerSource creates a Source backed by the inbound request r.
func NewServerSource(config Config, r *http.Request) *ServerSource {
	return &ServerSource{config: config, request: r}
}

// Resolve implements Source
func (s *ServerSource) Resolve(skipAuth bool) HeaderSet {
	headers := HeaderSet{
		Cookie:  s.request.Header.Get("Cookie"),
		Referer: refererFromRequest(s.request),
	}

	if !skipAuth {
		if cookie, err := s.request.Cookie(s.config.sessionCookieName()); err == nil && cookie.Value != "" {
			headers.Authorization = "Bearer " + cookie.Value
		}
	}

	if cookie, err := s.request.Cookie(s.config.xsrfCookieName()); err == nil {
		headers.XSRFToken = cookie.Value
	}

	return headers
}

// refererFromRequest derives a Referer URL from the forwarded host,
// preferring the reverse-proxy headers over the direct Host value.
func refererFromRequest(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
	}

	return scheme + "://" + host
}

// BrowserSource resolves credentials from a document.cookie style string
// ("name=value; name2=value2"). The session cookie read here is the
// non-HTTP-only variant exposed to client-rendered code.
type BrowserSource struct {
	config  Config
	cookies string
}

// NewBrowserSource creates a Source backed by the raw cookie string.
func NewBrowserSource(config Config, cookies string) *BrowserSource {
	return &BrowserSource{config: config, cookies: cookies}
}

// Resolve implements Source
func (s *BrowserSource) Resolve(skipAuth bool) HeaderSet {
	var headers HeaderSet

	if !skipAuth {
		if token := cookieValue(s.cookies, s.config.sessionCookieName()); token != "" {
			headers.Authorization = "Bearer " + token
		}
	}

	headers.XSRFToken = cookieValue(s.cookies, s.config.xsrfCookieName())

	return headers
}

// cookieValue extracts a cookie value from a "k=v; k2=v2" string.
func cookieValue(cookies, name string) string {
	for _, part := range strings.Split(cookies, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, name+"="); ok {
			return value
		}
	}
	return ""
}

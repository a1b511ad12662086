package backend

import (
	"fmt"
	"strings"
	"time"
)

// Config describes how to reach the upstream API.
type Config struct {
	// Domain is the API host, with or without a scheme
	// (e.g. "api.example.com" or "http://localhost:8000").
	Domain string

	// VersionMajor selects the versioned base path ("/v1", "/v2", ...).
	VersionMajor int

	// Timeout bounds each outbound call. Zero means no client timeout;
	// callers still control cancellation through their context.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the default API location
func DefaultConfig() Config {
	return Config{
		Domain:       "api.example.com",
		VersionMajor: 1,
	}
}

// BaseURL resolves the versioned base URL for outbound requests.
// A schemeless domain gets https.
func (c Config) BaseURL() string {
	domain := c.Domain
	if domain == "" {
		domain = "api.example.com"
	}
	domain = strings.TrimSuffix(domain, "/")

	major := c.VersionMajor
	if major <= 0 {
		major = 1
	}

	if strings.HasPrefix(domain, "http") {
		return fmt.Sprintf("%s/v%d", domain, major)
	}
	return fmt.Sprintf("https://%s/v%d", domain, major)
}

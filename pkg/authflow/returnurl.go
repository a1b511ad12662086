package authflow

import "strings"

// DefaultRedirect is where flows land when no valid returnTo is supplied.
const DefaultRedirect = "/"

// LogoutRedirect is the fixed post-logout target.
const LogoutRedirect = "/login"

// IsValidReturnURL reports whether url is safe to redirect to after a
// successful login. Only root-relative paths qualify: the string must be
// non-empty, start with "/", and carry no scheme. Protocol-relative URLs
// ("//host/path") are rejected too; they reach another origin even
// though they contain no "://".
func IsValidReturnURL(url string) bool {
	if url == "" {
		return false
	}
	if !strings.HasPrefix(url, "/") {
		return false
	}
	if strings.HasPrefix(url, "//") {
		return false
	}
	return !strings.Contains(url, "://")
}

// redirectTarget picks the validated returnTo or the default.
func redirectTarget(returnTo string) string {
	if IsValidReturnURL(returnTo) {
		return returnTo
	}
	return DefaultRedirect
}

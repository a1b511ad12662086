// Package backend is the HTTP client for the upstream dashboard API.
//
// All outbound calls funnel through Client: it resolves credential
// headers for the caller's execution context before sending, and runs
// the error classifier on every failed response — except for requests
// targeting the login endpoint, whose status codes have bespoke
// semantics and are classified by the auth flow itself.
//
// A Client is built once at process start and bound to a per-request
// credential source with WithSource:
//
//	c := backend.NewClient(cfg)
//	...
//	scoped := c.WithSource(credentials.NewServerSource(credCfg, r))
//	err := scoped.Get(ctx, "/users/me", &out)
package backend

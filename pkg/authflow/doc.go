// Package authflow orchestrates the login, two-factor, logout and
// password flows against the upstream API.
//
// Flow methods never return raw errors for remote failures: every
// failure is converted to a result value carrying a classified ApiError,
// so UI code only ever branches on discriminated results. The service is
// also the sole writer of the session cookie pair; see pkg/session.
package authflow

// Package twofa manages two-factor authentication from the profile
// security page: initiating setup, confirming it with a first code,
// disabling it, and regenerating recovery codes. All calls are relayed
// to the upstream API under the caller's session credentials; TOTP
// secrets never live in this service.
package twofa

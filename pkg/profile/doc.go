// Package profile reads and updates the authenticated user's profile
// and lists the organizations they belong to. It is a thin relay over
// the upstream API; the BFF keeps no profile state of its own.
package profile

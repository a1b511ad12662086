// Package session owns the durable record of "who is logged in": the
// HTTP-only session cookie and the user-id marker cookie written in
// lockstep with it.
//
// Only the auth flow writes or clears these cookies; everything else
// reads them. A Revalidator hook runs after every write or clear so the
// front end can invalidate cached auth-dependent views.
package session

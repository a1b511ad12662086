// Package credentials resolves the headers that authenticate an outbound
// API request for a given execution context.
//
// Two contexts exist: server (request-scoped, cookies forwarded from the
// inbound browser request) and browser (direct cookie-store access, used
// by client-rendered code). Both are variants of the Source interface so
// call sites never sniff their environment. Resolution is a pure read:
// a missing session token simply yields no Authorization header, and the
// failure, if any, surfaces later as a 401 from the upstream API.
package credentials

// Package apierror classifies failed upstream API calls into a stable,
// machine-readable error taxonomy.
//
// Every non-2xx response from the backend API is represented as a
// ResponseError carrying the HTTP status and the parsed error body.
// Classify turns any error (a ResponseError or a transport failure) into
// an ApiError with a fixed code and a localization message key. Flow
// services build their own status-to-key tables on top of these codes;
// nothing else in the codebase constructs ApiError values by hand.
package apierror

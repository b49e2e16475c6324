// Package common defines shared constants and sentinel errors used across
// the widget sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrNetwork = errors.New("network error")

	// Image pipeline errors (malformed or truncated payloads).
	ErrDecode = errors.New("image decode error")

	// Favorite mutation rejected or left ambiguous by the backend.
	ErrRemoteMutation = errors.New("remote mutation failed")

	// Exact-alarm scheduling is currently not permitted by the host.
	// Never fatal: callers fall back to the approximate primitive.
	ErrExactAlarmNotPermitted = errors.New("exact alarm not permitted")
)

// Package netx provides error-classification helpers for network calls.
package netx

import (
	"context"
	"errors"
	"net"
)

// IsTransient reports whether err is a failure that is likely to succeed on
// retry: name resolution problems, timeouts, or a deadline expiring on the
// request context.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

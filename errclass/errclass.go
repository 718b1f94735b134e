//
// SPDX-License-Identifier: GPL-3.0-or-later
//

// Package errclass maps the errors a TCP client observes while resolving,
// dialing, reading, and writing to short, stable classification strings.
// The strings feed two consumers: the errClass field on structured log
// events, and the tcpconn package's mapping from a failed operation to a
// disconnect reason.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// Classification strings. Callers match on these to pick a
// [github.com/svxlink-go/asynclink/tcpconn.DisconnectReason], so changing
// one is a breaking change.
const (
	ECANCELED    = "ECANCELED"
	ECONNABORTED = "ECONNABORTED"
	ECONNREFUSED = "ECONNREFUSED"
	ECONNRESET   = "ECONNRESET"
	EHOSTUNREACH = "EHOSTUNREACH"
	ENETDOWN     = "ENETDOWN"
	ENETUNREACH  = "ENETUNREACH"
	ENOTCONN     = "ENOTCONN"
	EPIPE        = "EPIPE"
	ETIMEDOUT    = "ETIMEDOUT"
	EGENERIC     = "EGENERIC"
)

// New classifies err into one of the constants declared above.
//
// A nil error classifies to the empty string: absence of an error means
// absence of a class, which keeps *Done log events uniform.
//
// Cancellation and deadline errors are recognized first, since they wrap
// no errno. Everything else is classified through the platform's
// errnoClasses table; an errno outside the table, or an error carrying no
// errno at all, is EGENERIC.
func New(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return ECANCELED
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ETIMEDOUT
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTimeout {
		return ETIMEDOUT
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if class, ok := errnoClasses[errno]; ok {
			return class
		}
	}

	return EGENERIC
}

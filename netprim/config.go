// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"net"
	"time"
)

// Dialer is the subset of [*net.Dialer] the connection primitives need.
// An interface here lets tests substitute scripted dialers and lets
// callers plug in dialers with custom resolution or socket options.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config carries the dependencies shared by every primitive in this
// module: who dials, how errors are classified for logging, and what
// "now" means. One Config is typically threaded through a whole client
// (its dialer, resolver, and both TCP clients), so swapping the dialer or
// the clock in a test reconfigures everything at once.
type Config struct {
	// Dialer dials outgoing connections. Defaults to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier supplies errClass log fields. Defaults to
	// [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow supplies event timestamps and the prioritized client's
	// re-probe deadlines. Defaults to [time.Now].
	TimeNow func() time.Time
}

// NewConfig returns a [*Config] with the production defaults filled in.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}

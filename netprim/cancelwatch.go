// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"net"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc ties a freshly dialed connection to its dial attempt's
// context: when the context is cancelled, the socket is closed, so an
// aborted or superseded attempt cannot leave a half-open connection
// behind. [github.com/svxlink-go/asynclink/tcpconn.Client] gives every
// attempt its own context and keeps the cancel function for as long as it
// owns the resulting socket, handing it over together with the socket
// during a connection transfer.
//
// Closing the returned connection unregisters the watcher before closing
// the wrapped socket, so nothing lingers when a connection ends normally.
// Cancelling after a normal close is a no-op, and a Close after the
// context was cancelled leaves the closing to the watcher and returns
// [net.ErrClosed], so the wrapped socket is closed exactly once.
type CancelWatchFunc struct{}

var _ Func[net.Conn, net.Conn] = &CancelWatchFunc{}

// Call wraps conn so that ctx's cancellation closes it.
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &watchedConn{Conn: conn, stop: stop}, nil
}

// watchedConn is a [net.Conn] bound to its dial attempt's context.
type watchedConn struct {
	net.Conn
	stop func() bool
}

// Close unregisters the context watcher, then closes the wrapped conn. If
// the watcher already fired (or Close already ran), the wrapped conn is
// not closed again.
func (c *watchedConn) Close() error {
	if !c.stop() {
		return net.ErrClosed
	}
	return c.Conn.Close()
}

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/conn.go
//

package netprim

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// NewObserveConnFunc returns a new [*ObserveConnFunc] wired to cfg's
// clock and classifier and the given logger.
func NewObserveConnFunc(cfg *Config, logger SLogger) *ObserveConnFunc {
	return &ObserveConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ObserveConnFunc wraps a freshly dialed [net.Conn] so that every read,
// write, deadline change, and close is logged with the connection's
// address fields attached. The wrapper is pure observation: bytes and
// errors pass through untouched. Liveness detection and abort remain the
// caller's concern ([CancelWatchFunc] and the tcpconn client's own read
// watch).
//
// All fields are safe to modify after construction but before first use,
// and must not be mutated concurrently with [ObserveConnFunc.Call].
type ObserveConnFunc struct {
	// ErrClassifier supplies the errClass field on *Done events.
	ErrClassifier ErrClassifier

	// Logger receives the events; per-I/O events at Debug, close at Info.
	Logger SLogger

	// TimeNow stamps the t/t0 fields; configurable for testing.
	TimeNow func() time.Time
}

var _ Func[net.Conn, net.Conn] = &ObserveConnFunc{}

// Call wraps conn for logging. The local/remote addresses and protocol are
// captured once here, so events keep their fields even after the
// underlying socket is gone.
func (op *ObserveConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	return &observedConn{
		conn:     conn,
		laddr:    safeconn.LocalAddr(conn),
		op:       op,
		protocol: safeconn.Network(conn),
		raddr:    safeconn.RemoteAddr(conn),
	}, nil
}

// observedConn logs every [net.Conn] operation it forwards.
type observedConn struct {
	closeonce sync.Once
	conn      net.Conn
	laddr     string
	op        *ObserveConnFunc
	protocol  string
	raddr     string
}

// fields appends the connection's fixed address fields to extra, forming
// the full attribute list for one event.
func (c *observedConn) fields(extra ...any) []any {
	return append(extra,
		slog.String("localAddr", c.laddr),
		slog.String("protocol", c.protocol),
		slog.String("remoteAddr", c.raddr),
	)
}

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	t0 := c.op.TimeNow()
	c.op.Logger.Debug("readStart", c.fields(
		slog.Int("ioBufferSize", len(buf)),
		slog.Time("t", t0),
	)...)

	count, err := c.conn.Read(buf)

	c.op.Logger.Debug("readDone", c.fields(
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)...)
	return count, err
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	t0 := c.op.TimeNow()
	c.op.Logger.Debug("writeStart", c.fields(
		slog.Int("ioBufferSize", len(data)),
		slog.Time("t", t0),
	)...)

	count, err := c.conn.Write(data)

	c.op.Logger.Debug("writeDone", c.fields(
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)...)
	return count, err
}

// Close implements [net.Conn]. The first call closes and logs a
// closeStart/closeDone span; subsequent calls return [net.ErrClosed] like
// the stdlib's own connections do.
func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		t0 := c.op.TimeNow()
		c.op.Logger.Info("closeStart", c.fields(slog.Time("t", t0))...)

		err = c.conn.Close()

		c.op.Logger.Info("closeDone", c.fields(
			slog.Any("err", err),
			slog.String("errClass", c.op.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", c.op.TimeNow()),
		)...)
	})
	return
}

// SetDeadline implements [net.Conn].
func (c *observedConn) SetDeadline(t time.Time) error {
	c.logDeadline("setDeadline", t)
	return c.conn.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (c *observedConn) SetReadDeadline(t time.Time) error {
	c.logDeadline("setReadDeadline", t)
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (c *observedConn) SetWriteDeadline(t time.Time) error {
	c.logDeadline("setWriteDeadline", t)
	return c.conn.SetWriteDeadline(t)
}

func (c *observedConn) logDeadline(event string, deadline time.Time) {
	c.op.Logger.Debug(event, c.fields(
		slog.Time("deadline", deadline),
		slog.Time("t", c.op.TimeNow()),
	)...)
}

// LocalAddr implements [net.Conn].
func (c *observedConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr implements [net.Conn].
func (c *observedConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

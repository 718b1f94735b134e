// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.h
// (connect()/disconnect()/markAsEstablished()/isIdle() contract and the
// move-assignment socket handoff it documents) and netprim's ConnectFunc /
// ObserveConnFunc / CancelWatchFunc / TLSHandshakeFunc pipeline, composed
// here via Compose3/Compose4 with ConnectFunc generalized from dialing a
// fixed [netip.AddrPort] to dialing an SRV target "host:port" string.

// Package tcpconn implements an asynchronous, single-endpoint TCP client
// whose connect/disconnect lifecycle is delivered as events on an
// [github.com/svxlink-go/asynclink/eventloop.Loop], and which supports
// transferring a live connection into another [*Client] without either side
// observing a spurious disconnect.
package tcpconn

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/svxlink-go/asynclink/errclass"
	"github.com/svxlink-go/asynclink/eventloop"
	"github.com/svxlink-go/asynclink/netprim"
)

// Client is a single-endpoint asynchronous TCP client.
//
// All exported methods must be called from the owning [eventloop.Loop]'s
// goroutine. Connect's dialing goroutine never touches Client state
// directly; it only hands its result back via [eventloop.Loop.Post], so no
// locking is needed.
type Client struct {
	// Config supplies the Dialer, ErrClassifier, and TimeNow used to dial.
	Config *netprim.Config

	// Logger receives connectStart/connectDone/closeStart/closeDone spans.
	Logger netprim.SLogger

	// Loop is where Connect's result and subsequent disconnects are posted.
	Loop *eventloop.Loop

	// OnConnected is invoked (on the loop) when the connection succeeds.
	OnConnected func()

	// OnDisconnected is invoked (on the loop) when the connection fails or
	// is lost, with the classified reason. Never invoked for an
	// [OrderedDisconnect] caused by [Client.Disconnect].
	OnDisconnected func(reason DisconnectReason)

	// TLSConfig, when non-nil, makes every subsequent [Client.Connect]
	// perform a TLS handshake over the freshly dialed socket before
	// reporting OnConnected. nil (the default) dials plaintext.
	TLSConfig *tls.Config

	// TLSEngine performs the handshake when TLSConfig is set. Defaults to
	// [netprim.TLSEngineStdlib]; overridable in tests.
	TLSEngine netprim.TLSEngine

	conn       net.Conn
	tlsConn    netprim.TLSConn
	remoteHost string
	remotePort uint16
	recvBufLen int
	cancelDial context.CancelFunc
	generation int
	watch      *connWatch
}

// New returns a [*Client] wired to cfg, logger, and loop.
func New(cfg *netprim.Config, loop *eventloop.Loop, logger netprim.SLogger) *Client {
	return &Client{
		Config: cfg,
		Logger: logger,
		Loop:   loop,
	}
}

// Connect begins an asynchronous connection attempt to host:port. Any
// connection or in-flight attempt is discarded first. Eventually calls
// either OnConnected or OnDisconnected on the loop.
//
// The dial pipeline is a [netprim.Compose3]/[netprim.Compose4] chain: dial
// ([netprim.ConnectFunc]) into cancel-on-abort ([netprim.CancelWatchFunc],
// bound to this attempt's own context, which stays open for as long as this
// connection is the current one) into I/O logging ([netprim.ObserveConnFunc])
// and, when TLSConfig is set, a final TLS handshake
// ([netprim.TLSHandshakeFunc]).
func (c *Client) Connect(host string, port uint16) {
	c.abortPending()
	c.remoteHost = host
	c.remotePort = port

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.generation++
	gen := c.generation

	address := net.JoinHostPort(host, strconv.Itoa(int(port)))
	dial := netprim.NewConnectFunc(c.Config, "tcp", c.Logger)
	cancelWatch := netprim.NewCancelWatchFunc()
	observe := netprim.NewObserveConnFunc(c.Config, c.Logger)

	tlsConfig := c.TLSConfig
	var tlsHandshake *netprim.TLSHandshakeFunc
	if tlsConfig != nil {
		tlsHandshake = netprim.NewTLSHandshakeFunc(c.Config, tlsConfig, c.Logger)
		if c.TLSEngine != nil {
			tlsHandshake.Engine = c.TLSEngine
		}
	}

	go func() {
		var conn net.Conn
		var tlsConn netprim.TLSConn
		var err error
		if tlsConfig != nil {
			pipeline := netprim.Compose4[string, net.Conn, net.Conn, net.Conn, netprim.TLSConn](
				dial, cancelWatch, observe, tlsHandshake)
			tlsConn, err = pipeline.Call(ctx, address)
		} else {
			pipeline := netprim.Compose3[string, net.Conn, net.Conn, net.Conn](
				dial, cancelWatch, observe)
			conn, err = pipeline.Call(ctx, address)
		}

		c.Loop.Post(func() {
			if gen != c.generation {
				// A newer Connect/Disconnect superseded this attempt.
				if tlsConn != nil {
					tlsConn.Close()
				} else if conn != nil {
					conn.Close()
				}
				return
			}
			if err != nil {
				c.signalDisconnected(classifyDialErr(err))
				return
			}
			if tlsConn != nil {
				c.conn = tlsConn
				c.tlsConn = tlsConn
			} else {
				c.conn = conn
			}
			watch := &connWatch{owner: c}
			c.watch = watch
			go watchLiveness(c.conn, watch)
			if c.OnConnected != nil {
				c.OnConnected()
			}
		})
	}()
}

// Disconnect closes the connection, if any, and cancels any in-flight
// attempt. OnDisconnected is never invoked as a result of this call: an
// ordered disconnect is silent by contract.
func (c *Client) Disconnect() {
	c.abortPending()
	c.closeConn()
}

func (c *Client) abortPending() {
	c.generation++
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.watch != nil {
		c.watch.retarget(nil)
		c.watch = nil
	}
}

func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.tlsConn = nil
}

// signalDisconnected clears local connection state and invokes
// OnDisconnected with reason, unless the client has since been superseded.
func (c *Client) signalDisconnected(reason DisconnectReason) {
	c.closeConn()
	if c.OnDisconnected != nil {
		c.OnDisconnected(reason)
	}
}

// Conn describes the currently active connection, or the zero value if
// idle.
type Conn struct {
	RemoteHost string
	RemotePort uint16
	RecvBufLen int
}

// Conn returns a snapshot of the active connection's metadata.
func (c *Client) Conn() Conn {
	return Conn{
		RemoteHost: c.remoteHost,
		RemotePort: c.remotePort,
		RecvBufLen: c.recvBufLen,
	}
}

// SetRecvBufLen sets the receive buffer size hint carried across a
// [Client.TakeConnectionFrom] handoff.
func (c *Client) SetRecvBufLen(n int) {
	c.recvBufLen = n
}

// Connected reports whether the client currently owns a live connection.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// TakeConnectionFrom transfers other's live socket, TLS session, and
// receive-buffer size into c, leaving other idle. Neither side emits a
// disconnected/connected event as part of this call — the caller (the
// prioritized client state machine) is responsible for any externally
// visible notification, since the handoff itself is wire-invisible.
//
// This is the "socket move-assignment" primitive: other must have a live
// connection; c's own connection, if any, is closed first. The socket's
// background liveness watch follows the handoff, retargeted to report to c
// instead of other — the same goroutine keeps reading, since two goroutines
// reading one [net.Conn] concurrently would race. The dial context's cancel
// function follows too: the [netprim.CancelWatchFunc] watcher registered
// during other's dial closes the socket when that context is cancelled, so
// it must now be cancelled by c's lifecycle, not by other's next
// Disconnect.
func (c *Client) TakeConnectionFrom(other *Client) {
	c.Disconnect()
	c.conn = other.conn
	c.tlsConn = other.tlsConn
	c.remoteHost = other.remoteHost
	c.remotePort = other.remotePort
	c.recvBufLen = other.recvBufLen
	c.cancelDial = other.cancelDial

	c.watch = other.watch
	if c.watch != nil {
		c.watch.retarget(c)
	}

	other.conn = nil
	other.tlsConn = nil
	other.watch = nil
	other.cancelDial = nil
	other.generation++ // any in-flight callback for other's old conn is now stale
}

// connWatch reports a background liveness read's outcome to its owning
// Client, on the loop, discarding the report once the Client has moved on
// (a new Connect, a Disconnect, or a TakeConnectionFrom handoff away from
// it) — mirroring the generation-counter idiom [Client.Connect] itself uses
// to discard a superseded dial result.
type connWatch struct {
	mu    sync.Mutex
	owner *Client
}

// retarget changes which Client this watch reports to, or nil to silence it.
func (w *connWatch) retarget(owner *Client) {
	w.mu.Lock()
	w.owner = owner
	w.mu.Unlock()
}

func (w *connWatch) reportDisconnected(reason DisconnectReason) {
	w.mu.Lock()
	owner := w.owner
	w.owner = nil
	w.mu.Unlock()
	if owner == nil {
		return
	}
	owner.Loop.Post(func() {
		if owner.watch != w {
			// Superseded between the read failing and this callback running.
			return
		}
		owner.watch = nil
		owner.signalDisconnected(reason)
	})
}

// watchLiveness blocks reading conn until it fails, then reports the
// classified [DisconnectReason] to watch. This package carries no
// protocol or framing knowledge of its own — that belongs to whatever
// session layer runs over the client — so any bytes read here are
// discarded and the read resumes: this loop exists only to detect that
// the peer is gone, not to consume application data.
func watchLiveness(conn net.Conn, watch *connWatch) {
	buf := make([]byte, 512)
	for {
		_, err := conn.Read(buf)
		if err == nil {
			continue
		}
		watch.reportDisconnected(classifyReadErr(err))
		return
	}
}

// classifyReadErr maps a post-connect read error to the [DisconnectReason]
// taxonomy.
func classifyReadErr(err error) DisconnectReason {
	if errors.Is(err, io.EOF) {
		return RemoteClosed
	}
	switch errclass.New(err) {
	case errclass.ECONNRESET, errclass.ECONNABORTED, errclass.ENOTCONN, errclass.EPIPE:
		return RemoteClosed
	case errclass.ETIMEDOUT:
		return Timeout
	default:
		return LocalClosed
	}
}

// classifyDialErr maps a dial error to the [DisconnectReason] taxonomy.
func classifyDialErr(err error) DisconnectReason {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return HostNotFound
	}
	switch errclass.New(err) {
	case errclass.ECONNREFUSED:
		return Refused
	case errclass.ETIMEDOUT:
		return Timeout
	case errclass.ECONNRESET, errclass.ECONNABORTED, errclass.ENOTCONN:
		return RemoteClosed
	default:
		return SystemError
	}
}

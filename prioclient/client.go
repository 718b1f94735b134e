// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.h
// (the public connect()/disconnect()/markAsEstablished()/isIdle()/
// isPrimary()/setService()/addStaticResourceRecord()/setReconnect* surface)
// and tcpconn.Client's New(cfg, loop, logger) constructor shape.

package prioclient

import (
	"github.com/svxlink-go/asynclink/backoff"
	"github.com/svxlink-go/asynclink/dnssrv"
	"github.com/svxlink-go/asynclink/eventloop"
	"github.com/svxlink-go/asynclink/hfsm"
	"github.com/svxlink-go/asynclink/netprim"
	"github.com/svxlink-go/asynclink/tcpconn"
)

// Default reconnect backoff parameters, matching
// AsyncTcpPrioClientBase's DEFAULT_RECONNECT_{MIN,MAX}_TIMEOUT and
// backoff/randomize percentages.
const (
	defaultMinMs      = 1000
	defaultMaxMs      = 20000
	defaultBackoffPct = 50
	defaultJitterPct  = 10
)

// Client is a priority-aware, DNS-SRV-driven TCP client with automatic
// failover. All exported methods must be called from the owning
// [eventloop.Loop]'s goroutine: Client, like its tcpconn/dnssrv
// collaborators, confines all mutation to one thread.
//
// The zero value is not ready to use; construct with [New].
type Client struct {
	m *hfsm.Machine[*ctx]
	c *ctx
}

// New constructs a [*Client], wires its foreground/background TCP clients
// and DNS resolver to inject events into the state machine, and starts
// it. The machine settles in its disconnected state, with [Client.IsIdle]
// true, before New returns.
func New(cfg *netprim.Config, loop *eventloop.Loop, logger netprim.SLogger) *Client {
	c := &ctx{
		cfg:          cfg,
		logger:       logger,
		loop:         loop,
		fg:           tcpconn.New(cfg, loop, logger),
		bg:           tcpconn.New(cfg, loop, logger),
		dns:          dnssrv.New(cfg, loop, logger),
		bo:           backoff.New(defaultMinMs, defaultMaxMs, defaultBackoffPct, defaultJitterPct),
		randJitterMs: defaultRandJitterMs,
		timeNow:      cfg.TimeNow,
	}

	cl := &Client{c: c}

	c.fg.OnConnected = func() { cl.m.Dispatch(evConnected{}) }
	c.fg.OnDisconnected = func(reason tcpconn.DisconnectReason) { cl.m.Dispatch(evDisconnected{reason}) }
	c.bg.OnConnected = func() { cl.m.Dispatch(evBGConnected{}) }
	c.bg.OnDisconnected = func(reason tcpconn.DisconnectReason) { cl.m.Dispatch(evBGDisconnected{reason}) }
	c.dns.OnResultsReady = func() { cl.m.Dispatch(evDNSResults{}) }

	cl.m = newMachine(c)
	return cl
}

// Connect injects the connect event, starting SRV lookup and the
// connect/backoff loop from [Disconnected]. A no-op from any other state.
func (cl *Client) Connect() {
	cl.m.Dispatch(evConnect{})
}

// Disconnect injects the disconnect event. The root state handles it from
// any configuration, so the machine unconditionally returns to
// disconnected and idle. Idempotent.
func (cl *Client) Disconnect() {
	cl.m.Dispatch(evDisconnect{})
}

// MarkAsEstablished records that the application considers the current
// connection functionally useful (e.g. authenticated). After that
// connection is lost, the backoff policy is reset before the reconnect
// wait, and the next connect_to_next retries the same endpoint once
// instead of advancing.
func (cl *Client) MarkAsEstablished() {
	cl.c.markedAsEstablished = true
}

// MarkedAsEstablished reports whether [Client.MarkAsEstablished] was
// called since the last time the flag was consumed by a reconnect attempt.
func (cl *Client) MarkedAsEstablished() bool {
	return cl.c.markedAsEstablished
}

// IsIdle reports whether the machine is in [Disconnected].
func (cl *Client) IsIdle() bool {
	return cl.m.Current() == disconnected
}

// IsPrimary reports whether the machine is connected to the
// highest-priority endpoint in the last resolved SRV set.
func (cl *Client) IsPrimary() bool {
	return cl.m.Current() == connectedHighestPrio
}

// SetService builds the "_service._proto.domain." RFC 2782 query label
// and forwards it to the DNS resolver.
func (cl *Client) SetService(service, proto, domain string) {
	cl.c.dns.SetService(service, proto, domain)
}

// AddStaticSRVRecord adds a statically configured SRV record, merged into
// every subsequent lookup's result set. See
// [github.com/svxlink-go/asynclink/dnssrv.Resolver.AddStaticRecord] for
// how a zero ttl behaves.
func (cl *Client) AddStaticSRVRecord(ttl uint32, priority, weight, port uint16, target string) {
	cl.c.dns.AddStaticRecord(ttl, priority, weight, port, target)
}

// SetReconnectMinTime sets the reconnect backoff floor, in milliseconds.
func (cl *Client) SetReconnectMinTime(ms int64) { cl.c.bo.SetMinTime(ms) }

// SetReconnectMaxTime sets the reconnect backoff ceiling, in milliseconds.
func (cl *Client) SetReconnectMaxTime(ms int64) { cl.c.bo.SetMaxTime(ms) }

// SetReconnectBackoffPercent sets the percentage by which the pre-jitter
// reconnect delay grows on each failed attempt.
func (cl *Client) SetReconnectBackoffPercent(pct int64) { cl.c.bo.SetBackoffPercent(pct) }

// SetReconnectRandomizePercent sets the jitter percentage applied on top
// of the pre-jitter reconnect delay.
func (cl *Client) SetReconnectRandomizePercent(pct int64) { cl.c.bo.SetRandomizePercent(pct) }

// OnConnected registers fn to be called when the foreground connection is
// up at the socket level. Replaces any previously registered callback.
func (cl *Client) OnConnected(fn func()) {
	cl.c.onConnected = fn
}

// OnDisconnected registers fn to be called when the foreground connection
// is lost or replaced, with the reason. Replaces any previously registered
// callback. Never called for a caller-initiated [Client.Disconnect].
func (cl *Client) OnDisconnected(fn func(tcpconn.DisconnectReason)) {
	cl.c.onDisconnected = fn
}

// currentBackoffMs exposes the backoff policy's current delay level for
// tests asserting backoff growth and reset.
func (cl *Client) currentBackoffMs() int64 { return cl.c.bo.CurrentMs() }

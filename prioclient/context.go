// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.cpp
// (member fields of AsyncTcpPrioClientBase: m_dns, m_con (foreground),
// m_con_bg (background), m_reconnect_timer, m_next_rr, m_marked_as_established)
// reimplemented as the shared hfsm context struct rather than class fields.

package prioclient

import (
	"math/rand/v2"
	"time"

	"github.com/svxlink-go/asynclink/backoff"
	"github.com/svxlink-go/asynclink/dnssrv"
	"github.com/svxlink-go/asynclink/eventloop"
	"github.com/svxlink-go/asynclink/netprim"
	"github.com/svxlink-go/asynclink/tcpconn"
)

// ctx is the state shared by every node of the prioclient machine. It plays
// the role the svxlink original gives to AsyncTcpPrioClientBase's own
// fields: states mutate it directly instead of holding data themselves.
type ctx struct {
	cfg    *netprim.Config
	logger netprim.SLogger
	loop   *eventloop.Loop

	fg  *tcpconn.Client
	bg  *tcpconn.Client
	dns *dnssrv.Resolver
	bo  *backoff.Policy

	// records is the merged, sorted SRV set from the most recent lookup.
	records dnssrv.RecordSet

	// nextRR indexes into records, playing the role of the m_next_rr
	// iterator: a value == len(records) is its end() sentinel.
	nextRR int

	// markedAsEstablished mirrors the caller's MarkAsEstablished call. Set,
	// it makes the next reconnect retry the same endpoint once instead of
	// advancing, and resets the backoff policy before the reconnect wait.
	markedAsEstablished bool

	// pendingDisconnectReason is stashed by connectedRoot's Handle just
	// before transitioning away, and consumed by its Exit hook so the
	// external disconnected(reason) signal carries the right reason
	// without Exit needing the triggering event. Zero means "no signal":
	// a caller-initiated disconnect() leaves it unset.
	pendingDisconnectReason tcpconn.DisconnectReason

	reconnectTimer *eventloop.Timer
	reprobeTimer   *eventloop.Timer

	// randJitterMs and timeNow are overridden in tests for determinism;
	// production code leaves them at their New()-assigned defaults.
	randJitterMs func() int64
	timeNow      func() time.Time

	onConnected    func()
	onDisconnected func(tcpconn.DisconnectReason)
}

// currentEndpoint reports the host/port of the record the foreground client
// is connected to, used to detect whether a re-probe found anything new.
func (c *ctx) currentEndpoint() (string, uint16) {
	conn := c.fg.Conn()
	return conn.RemoteHost, conn.RemotePort
}

// recordEqualsCurrent reports whether rr names the same endpoint the
// foreground client already holds.
func (c *ctx) recordEqualsCurrent(rr dnssrv.Record) bool {
	host, port := c.currentEndpoint()
	return rr.Target == host && rr.Port == port
}

// connectToNext implements AsyncTcpPrioClientBase::connectToNextServer():
// advance (or, if the application marked the current endpoint established,
// retry it once), and either issue the next connect or report the record
// set exhausted so the caller can fall back to the reconnect wait.
func connectToNext(c *ctx) (connectIssued bool) {
	n := len(c.records)
	if c.nextRR >= n {
		c.nextRR = 0
	} else if !c.markedAsEstablished {
		c.nextRR++
	}
	if c.nextRR >= n {
		return false
	}
	c.markedAsEstablished = false
	rr := c.records[c.nextRR]
	c.fg.Connect(rr.Target, rr.Port)
	return true
}

// nextReprobeDeadline computes the next top-of-minute wall-clock deadline,
// offset by a small uniform jitter so a fleet of clients started together
// does not re-probe the directory in one synchronized storm.
func nextReprobeDeadline(now time.Time, jitterMs int64) time.Time {
	top := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())
	return top.Add(60 * time.Second).Add(time.Duration(jitterMs) * time.Millisecond)
}

// defaultRandJitterMs draws a uniform re-probe offset in [0, 500] ms.
func defaultRandJitterMs() int64 {
	return rand.Int64N(501)
}

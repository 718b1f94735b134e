// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.cpp
// (StateDisconnected, StateConnecting/StateConnectingSrvLookup/
// StateConnectingTryConnect/StateConnectingIdle, StateConnected/
// StateConnectedHighestPrio/StateConnectedLowerPrio* — every entry/exit/
// init/handler below mirrors one of those classes' overrides, translated
// from svxlink's virtual-dispatch StateMachine onto hfsm.Node's table form.

package prioclient

import (
	"log/slog"
	"time"

	"github.com/svxlink-go/asynclink/hfsm"
	"github.com/svxlink-go/asynclink/tcpconn"
)

// scheduleConnected posts the external connected() signal onto the loop so
// subscribers never observe a partially-transitioned machine — the same
// deferral StateConnected::entry gets from runTask(&emitConnected). Used
// both by Connected's Entry (fresh arrival from Connecting) and explicitly
// by the bg_connected handler, since a peer-switch promotion never leaves
// and re-enters the Connected composite, so Entry does not fire a second
// time.
func scheduleConnected(c *ctx) {
	c.loop.Post(func() {
		if c.onConnected != nil {
			c.onConnected()
		}
	})
}

func newMachine(c *ctx) *hfsm.Machine[*ctx] {
	m := hfsm.New[*ctx](c)
	m.OnTransition = func(from, to hfsm.Kind) {
		c.logger.Debug(
			"hfsmTransition",
			slog.String("from", from.(kind).String()),
			slog.String("to", to.(kind).String()),
		)
	}

	m.AddState(top, hfsm.Node[*ctx]{
		Init: func(m *hfsm.Machine[*ctx]) { m.SetState(disconnected) },
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evDisconnect); ok {
				m.SetState(disconnected)
				return true
			}
			return false
		},
	})

	m.AddState(disconnected, hfsm.Node[*ctx]{
		Parent: top,
		Entry: func(m *hfsm.Machine[*ctx]) {
			// Silent: fg.Disconnect() never emits OnDisconnected.
			m.Context().fg.Disconnect()
		},
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evConnect); ok {
				m.SetState(connectingSRVLookup)
				return true
			}
			return false
		},
	})

	// Connecting is an abstract parent: it intentionally carries no
	// Entry/Exit/Init/Handle of its own. Backoff persists across repeated
	// lookup-then-fail cycles precisely because nothing here resets it.
	m.AddState(connecting, hfsm.Node[*ctx]{
		Parent: top,
	})

	m.AddState(connectingSRVLookup, hfsm.Node[*ctx]{
		Parent: connecting,
		Entry:  func(m *hfsm.Machine[*ctx]) { m.Context().dns.Lookup() },
		Exit:   func(m *hfsm.Machine[*ctx]) { m.Context().dns.Abort() },
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evDNSResults); ok {
				c := m.Context()
				c.dns.ResourceRecords(&c.records)
				if len(c.records) > 0 {
					c.nextRR = len(c.records) // "end()"
					m.SetState(connectingTryConnect)
				} else {
					m.SetState(connectingIdle)
				}
				return true
			}
			return false
		},
	})

	m.AddState(connectingTryConnect, hfsm.Node[*ctx]{
		Parent: connecting,
		Entry: func(m *hfsm.Machine[*ctx]) {
			if !connectToNext(m.Context()) {
				m.SetState(connectingIdle)
			}
		},
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			switch ev.(type) {
			case evConnected:
				m.SetState(connectedRoot)
				return true
			case evDisconnected:
				if !connectToNext(m.Context()) {
					m.SetState(connectingIdle)
				}
				return true
			}
			return false
		},
	})

	m.AddState(connectingIdle, hfsm.Node[*ctx]{
		Parent: connecting,
		Entry: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			if c.markedAsEstablished {
				c.bo.Reset()
			}
			delay := time.Duration(c.bo.Next()) * time.Millisecond
			c.reconnectTimer = c.loop.AfterFunc(delay, func() { m.Dispatch(evTimeout{}) })
		},
		Exit: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			if c.reconnectTimer != nil {
				c.reconnectTimer.Stop()
				c.reconnectTimer = nil
			}
		},
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evTimeout); ok {
				m.SetState(connectingSRVLookup)
				return true
			}
			return false
		},
	})

	m.AddState(connectedRoot, hfsm.Node[*ctx]{
		Parent: top,
		Entry:  func(m *hfsm.Machine[*ctx]) { scheduleConnected(m.Context()) },
		Init: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			if c.nextRR == 0 && !c.dns.LookupFailed() {
				m.SetState(connectedHighestPrio)
			} else {
				m.SetState(connectedLowerPrioIdle)
			}
		},
		Exit: func(m *hfsm.Machine[*ctx]) {
			// Fires only when genuinely leaving the Connected region (the
			// peer-switch path in ConnectedLowerPrioTryConnect never exits
			// this far up, since its LCA with connectedRoot IS
			// connectedRoot). pendingDisconnectReason is zero otherwise,
			// e.g. for a caller-initiated disconnect() via Top, which must
			// stay silent.
			c := m.Context()
			if reason := c.pendingDisconnectReason; reason != 0 {
				c.pendingDisconnectReason = 0
				c.loop.Post(func() {
					if c.onDisconnected != nil {
						c.onDisconnected(reason)
					}
				})
			}
		},
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if d, ok := ev.(evDisconnected); ok {
				c := m.Context()
				c.pendingDisconnectReason = d.reason
				if c.markedAsEstablished {
					m.SetState(connectingIdle)
				} else {
					m.SetState(connectingTryConnect)
				}
				return true
			}
			return false
		},
	})

	m.AddState(connectedHighestPrio, hfsm.Node[*ctx]{
		Parent: connectedRoot,
	})

	// ConnectedLowerPrio is an abstract parent grouping the re-probe
	// substates; it carries no behavior of its own.
	m.AddState(connectedLowerPrio, hfsm.Node[*ctx]{
		Parent: connectedRoot,
	})

	m.AddState(connectedLowerPrioIdle, hfsm.Node[*ctx]{
		Parent: connectedLowerPrio,
		Entry: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			deadline := nextReprobeDeadline(c.timeNow(), c.randJitterMs())
			c.reprobeTimer = c.loop.AtFunc(deadline, func() { m.Dispatch(evTimeoutAt{}) })
		},
		Exit: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			if c.reprobeTimer != nil {
				c.reprobeTimer.Stop()
				c.reprobeTimer = nil
			}
		},
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evTimeoutAt); ok {
				m.SetState(connectedLowerPrioSRVLookup)
				return true
			}
			return false
		},
	})

	m.AddState(connectedLowerPrioSRVLookup, hfsm.Node[*ctx]{
		Parent: connectedLowerPrio,
		Entry:  func(m *hfsm.Machine[*ctx]) { m.Context().dns.Lookup() },
		Exit:   func(m *hfsm.Machine[*ctx]) { m.Context().dns.Abort() },
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			if _, ok := ev.(evDNSResults); ok {
				c := m.Context()
				c.dns.ResourceRecords(&c.records)
				if len(c.records) > 0 && !c.recordEqualsCurrent(c.records[0]) {
					m.SetState(connectedLowerPrioTryConnect)
				} else {
					m.SetState(connectedRoot) // re-derives the correct leaf via Init
				}
				return true
			}
			return false
		},
	})

	m.AddState(connectedLowerPrioTryConnect, hfsm.Node[*ctx]{
		Parent: connectedLowerPrio,
		Entry: func(m *hfsm.Machine[*ctx]) {
			c := m.Context()
			c.nextRR = 0
			c.bg.SetRecvBufLen(c.fg.Conn().RecvBufLen)
			rr := c.records[0]
			c.bg.Connect(rr.Target, rr.Port)
		},
		Exit: func(m *hfsm.Machine[*ctx]) { m.Context().bg.Disconnect() },
		Handle: func(m *hfsm.Machine[*ctx], ev hfsm.Event) bool {
			switch ev.(type) {
			case evBGConnected:
				c := m.Context()
				if c.fg.Connected() {
					c.fg.Disconnect()
					c.loop.Post(func() {
						if c.onDisconnected != nil {
							c.onDisconnected(tcpconn.SwitchPeer)
						}
					})
				}
				// Socket-move: transfers the live connection, buffers, and
				// TLS session atomically; reattaches without re-handshaking
				// since TakeConnectionFrom carries the TLS session as-is.
				c.fg.TakeConnectionFrom(c.bg)
				scheduleConnected(c) // Connected's Entry does not refire: we
				// never leave the Connected composite on this transition.
				// Both signals are posted, in this order, so neither
				// observes the machine mid-transition.
				m.SetState(connectedRoot)
				return true
			case evBGDisconnected:
				c := m.Context()
				c.nextRR++
				if c.nextRR < len(c.records) && !c.recordEqualsCurrent(c.records[c.nextRR]) {
					rr := c.records[c.nextRR]
					c.bg.Connect(rr.Target, rr.Port)
				} else {
					m.SetState(connectedLowerPrioIdle)
				}
				return true
			}
			return false
		},
	})

	m.Start(top)
	return m
}

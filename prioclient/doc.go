// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.h
// and AsyncTcpPrioClientBase.cpp (the StateDisconnected/StateConnecting*/
// StateConnected* hierarchy, connectToNextServer(), and the background
// "connection" TcpClient used for silent re-probing), reimplemented on top
// of this repo's [github.com/svxlink-go/asynclink/hfsm] engine instead of
// svxlink's hand-rolled StateMachine subclasses.

// Package prioclient implements a priority-aware, DNS-SRV-driven TCP client
// with automatic failover: it resolves a service name to an ordered list of
// SRV records, connects to the highest-priority endpoint it can reach, and
// silently probes for a higher-priority endpoint becoming available while
// connected to a lower-priority one, hot-swapping the active socket onto it
// without the caller observing more than a single disconnected/connected
// pair.
//
// The state tree, events, and every entry/exit/init/handler rule are
// driven by [github.com/svxlink-go/asynclink/hfsm.Machine] over a shared
// context holding a foreground [github.com/svxlink-go/asynclink/tcpconn.Client]
// (the caller-visible connection), a background one (used only to probe
// candidate peers), a [github.com/svxlink-go/asynclink/dnssrv.Resolver],
// and a [github.com/svxlink-go/asynclink/backoff.Policy].
package prioclient

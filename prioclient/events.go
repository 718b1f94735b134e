// SPDX-License-Identifier: GPL-3.0-or-later

package prioclient

import "github.com/svxlink-go/asynclink/tcpconn"

// Events dispatched into the machine. Each is a distinct type so
// [github.com/svxlink-go/asynclink/hfsm.Machine.Dispatch] can route on a
// type switch inside state handlers without a shared "kind" tag.
type (
	evConnect        struct{}
	evDisconnect     struct{}
	evDNSResults     struct{}
	evConnected      struct{}
	evDisconnected   struct{ reason tcpconn.DisconnectReason }
	evBGConnected    struct{}
	evBGDisconnected struct{ reason tcpconn.DisconnectReason }
	evTimeout        struct{}
	evTimeoutAt      struct{}
)

// SPDX-License-Identifier: GPL-3.0-or-later

package prioclient

// kind identifies one leaf or composite state of the connection machine,
// one value per State* class of the original hierarchy. Values are
// package-private: callers only ever observe state through
// [Client.IsIdle] / [Client.IsPrimary].
type kind int

const (
	top kind = iota
	disconnected
	connecting
	connectingSRVLookup
	connectingTryConnect
	connectingIdle
	connectedRoot
	connectedHighestPrio
	connectedLowerPrio
	connectedLowerPrioIdle
	connectedLowerPrioSRVLookup
	connectedLowerPrioTryConnect
)

// String renders kind for log fields and test failure messages.
func (k kind) String() string {
	switch k {
	case top:
		return "Top"
	case disconnected:
		return "Disconnected"
	case connecting:
		return "Connecting"
	case connectingSRVLookup:
		return "ConnectingSRVLookup"
	case connectingTryConnect:
		return "ConnectingTryConnect"
	case connectingIdle:
		return "ConnectingIdle"
	case connectedRoot:
		return "Connected"
	case connectedHighestPrio:
		return "ConnectedHighestPrio"
	case connectedLowerPrio:
		return "ConnectedLowerPrio"
	case connectedLowerPrioIdle:
		return "ConnectedLowerPrioIdle"
	case connectedLowerPrioSRVLookup:
		return "ConnectedLowerPrioSRVLookup"
	case connectedLowerPrioTryConnect:
		return "ConnectedLowerPrioTryConnect"
	default:
		return "Unknown"
	}
}

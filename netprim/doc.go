// SPDX-License-Identifier: GPL-3.0-or-later

// Package netprim provides composable primitives for building connection
// pipelines: dial, observe, TLS-handshake, and bind-to-context-lifetime
// operations, shared by [github.com/svxlink-go/asynclink/dnssrv] and
// [github.com/svxlink-go/asynclink/tcpconn].
//
// # Core Abstraction
//
// The package is built around a single interface:
//
//	type Func[A, B any] interface {
//		Call(ctx context.Context, input A) (B, error)
//	}
//
// Each Func represents an atomic operation with exactly one success mode
// and one failure mode. This design enables type-safe composition via
// [Compose2], [Compose3], etc., where the compiler verifies that outputs
// match inputs across pipeline stages.
//
// # Available Primitives
//
//   - [ConnectFunc]: dials a "host:port" address over TCP or UDP
//   - [TLSHandshakeFunc]: performs a TLS handshake over an existing connection
//   - [ObserveConnFunc]: observes connections for logging I/O operations
//   - [CancelWatchFunc]: closes a connection on context cancellation
//
// ConnectFunc takes a "host:port" string rather than a pre-resolved
// [net/netip.AddrPort]: callers here dial SRV targets, which are hostnames
// resolved by the [Dialer] itself, not pre-resolved endpoints.
//
// Composition utilities:
//   - [Compose2] through [Compose4]: chain Funcs into pipelines
//   - [FuncAdapter]: wrap a function as a Func for ad-hoc custom behavior
//
// # Connection Lifecycle
//
// Dial and handshake stages ([ConnectFunc], [TLSHandshakeFunc]) create
// connections and transfer ownership to the next stage on success. On error,
// they close the connection. [CancelWatchFunc] binds the remainder of the
// pipeline's lifetime to the dial context, so aborting that context (e.g. a
// superseded connection attempt) closes the socket without the caller
// needing to track it separately. Higher layers ([tcpconn.Client]) own the
// final connection past that point and are responsible for closing it,
// including during a socket handoff.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Set the Logger field to a
// custom [*slog.Logger] to enable logging. Error classification is
// configurable via [ErrClassifier]; by default, [errclass.New] is used.
//
// Primitives emit span events (*Start/*Done pairs) recording operation
// lifecycle, timing, and success/failure, sharing a common field vocabulary:
// localAddr, remoteAddr, protocol, t (timestamp); *Done events additionally
// carry t0 (start time), err, and errClass. I/O-level events (read, write,
// deadline changes) are emitted at [slog.LevelDebug]; lifecycle events use
// [slog.LevelInfo].
//
// Operations that span several events may add their own correlating
// fields on top of this vocabulary; the SRV resolver ties a lookup's
// start/done pair together with a spanID field, for example.
//
// # Timeout and Context Philosophy
//
// This package is context-transparent: operations never modify the context
// they receive. Connection lifecycle requires [CancelWatchFunc] to bind the
// context lifecycle to the connection: when the context is done, the
// connection is closed immediately, causing any in-progress I/O to fail.
//
// # Design Boundaries
//
// This package intentionally provides only primitives. Retry/backoff,
// service discovery, and state-machine orchestration are layered on top by
// [github.com/svxlink-go/asynclink/prioclient] and do not belong here.
package netprim

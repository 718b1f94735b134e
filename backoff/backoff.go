// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: spec reconnect-backoff arithmetic (AsyncTcpPrioClientBase's
// reconnect min/max/backoff/randomize percent parameters), reimplemented
// here as a free-standing policy rather than embedded in the TCP client.

// Package backoff implements jittered exponential backoff for reconnect
// scheduling.
package backoff

import (
	"math/rand/v2"

	"github.com/bassosimone/runtimex"
)

// Policy computes successive reconnect delays.
//
// The zero value is not ready to use; construct with [New].
type Policy struct {
	minMs      int64
	maxMs      int64
	backoffPct int64
	jitterPct  int64
	currentMs  int64
	randIntN   func(n int64) int64
}

// New returns a [*Policy]. minMs must be positive and maxMs must be at
// least minMs; backoffPct and jitterPct must be non-negative.
func New(minMs, maxMs, backoffPct, jitterPct int64) *Policy {
	runtimex.Assert(minMs > 0)
	runtimex.Assert(maxMs >= minMs)
	runtimex.Assert(backoffPct >= 0)
	runtimex.Assert(jitterPct >= 0)
	return &Policy{
		minMs:      minMs,
		maxMs:      maxMs,
		backoffPct: backoffPct,
		jitterPct:  jitterPct,
		currentMs:  minMs,
		randIntN: func(n int64) int64 {
			if n <= 0 {
				return 0
			}
			return rand.Int64N(n)
		},
	}
}

// Next returns the delay, in milliseconds, to wait before the next
// reconnect attempt, and advances the internal state for the attempt
// after that: delay = current + random(0..=current*jitterPct/100), then
// current := min(maxMs, current + max(1, current*backoffPct/100)).
func (p *Policy) Next() int64 {
	jitterSpan := p.currentMs * p.jitterPct / 100
	delay := p.currentMs
	if jitterSpan > 0 {
		delay += p.randIntN(jitterSpan + 1)
	}

	step := p.currentMs * p.backoffPct / 100
	if step < 1 {
		step = 1
	}
	p.currentMs = min(p.maxMs, p.currentMs+step)

	return delay
}

// Reset sets the current delay back to minMs, so the next delay starts
// from the floor again. The prioclient package calls it before a reconnect
// wait when the lost connection had been marked as established.
func (p *Policy) Reset() {
	p.currentMs = p.minMs
}

// SetMinTime sets the floor delay and restarts the backoff sequence from
// it, so the next [Policy.Next] returns the new floor (plus jitter).
func (p *Policy) SetMinTime(minMs int64) {
	runtimex.Assert(minMs > 0)
	p.minMs = minMs
	p.currentMs = minMs
}

// SetMaxTime sets the ceiling delay that [Policy.Next] clamps to.
func (p *Policy) SetMaxTime(maxMs int64) {
	runtimex.Assert(maxMs >= p.minMs)
	p.maxMs = maxMs
}

// SetBackoffPercent sets the percentage by which the pre-jitter delay grows
// on each [Policy.Next] call.
func (p *Policy) SetBackoffPercent(pct int64) {
	runtimex.Assert(pct >= 0)
	p.backoffPct = pct
}

// SetRandomizePercent sets the percentage of the current delay used as the
// upper bound of the jitter added by [Policy.Next].
func (p *Policy) SetRandomizePercent(pct int64) {
	runtimex.Assert(pct >= 0)
	p.jitterPct = pct
}

// CurrentMs returns the current (pre-jitter) delay level, mostly useful
// for tests and introspection.
func (p *Policy) CurrentMs() int64 {
	return p.currentMs
}

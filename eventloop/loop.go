// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncStateMachine.h
// (Async::Timer/Async::StateTopBase timer helpers) for the relative/absolute
// timer split, and netprim/cancelwatch.go's context.AfterFunc-based
// scheduling idiom, generalized from "close on cancel" to "fire an event".

// Package eventloop provides a minimal single-threaded cooperative event
// loop: closures posted from any goroutine run serialized, one at a time,
// on the loop's own goroutine, so handlers never need locks to protect
// state the loop owns.
package eventloop

import (
	"container/heap"
	"context"
	"time"
)

// Loop serializes posted work and timer callbacks onto a single goroutine.
//
// The zero value is not ready to use; construct with [New].
type Loop struct {
	postCh chan func()
	timers timerHeap
	nextID uint64
}

// New returns an idle [*Loop]. Call [Loop.Run] to start processing.
func New() *Loop {
	return &Loop{
		postCh: make(chan func(), 64),
	}
}

// Post enqueues fn to run on the loop's goroutine. Safe to call from any
// goroutine, including from within a handler running on the loop itself.
//
// Posting is how [github.com/svxlink-go/asynclink/dnssrv.Resolver] and
// [github.com/svxlink-go/asynclink/tcpconn.Client] deliver results computed
// on a background goroutine (DNS lookups, dials) back into the loop without
// the receiver ever observing partially-updated state.
func (l *Loop) Post(fn func()) {
	l.postCh <- fn
}

// Timer is a scheduled, cancelable callback.
type Timer struct {
	id   uint64
	loop *Loop
}

// Stop cancels the timer. Stopping an already-fired or already-stopped
// timer is a no-op.
func (t *Timer) Stop() {
	t.loop.Post(func() {
		l := &t.loop.timers
		for i, e := range *l {
			if e.id == t.id {
				heap.Remove(l, i)
				break
			}
		}
	})
}

// AfterFunc schedules fn to run on the loop's goroutine after d elapses.
// This is the relative timer of the original's setTimeout().
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	return l.schedule(time.Now().Add(d), fn)
}

// AtFunc schedules fn to run on the loop's goroutine at the given absolute
// time. This is the original's setTimeoutAt(), used for top-of-minute
// style deadlines.
func (l *Loop) AtFunc(at time.Time, fn func()) *Timer {
	return l.schedule(at, fn)
}

func (l *Loop) schedule(at time.Time, fn func()) *Timer {
	t := &Timer{loop: l}
	l.Post(func() {
		l.nextID++
		t.id = l.nextID
		heap.Push(&l.timers, &timerEntry{id: t.id, at: at, fn: fn})
	})
	return t
}

// Run drains posted work and fires due timers until ctx is done. It blocks
// the calling goroutine and should typically be run in its own goroutine
// by the caller that owns the [*Loop].
func (l *Loop) Run(ctx context.Context) {
	for {
		var timerC <-chan time.Time
		var wallTimer *time.Timer
		var due *timerEntry
		if len(l.timers) > 0 {
			due = l.timers[0]
			d := time.Until(due.at)
			if d <= 0 {
				d = 0
			}
			wallTimer = time.NewTimer(d)
			timerC = wallTimer.C
		}

		select {
		case <-ctx.Done():
			if wallTimer != nil {
				wallTimer.Stop()
			}
			return
		case fn := <-l.postCh:
			if wallTimer != nil {
				wallTimer.Stop()
			}
			fn()
		case <-timerC:
			heap.Pop(&l.timers)
			due.fn()
		}
	}
}

// timerEntry is one scheduled callback, ordered by deadline in timerHeap.
type timerEntry struct {
	id uint64
	at time.Time
	fn func()
}

// timerHeap implements container/heap.Interface ordering by deadline.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)         { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

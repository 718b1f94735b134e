// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncStateMachine.h
// (the svxlink Async::StateMachine/StateBase/StateTopBase templates).

// Package hfsm implements a small hierarchical finite state machine engine.
//
// States are organized in a tree. Transitioning from one leaf state to
// another runs exit handlers from the old leaf up to (but excluding) the
// least common ancestor, then entry handlers from the least common ancestor
// down to the new leaf — the same ordering as UML hierarchical state charts
// and as the original C++ StateMachine this package is modeled on.
//
// Unlike a class-hierarchy implementation, states here are plain table
// entries ([Node]) keyed by a comparable [Kind] and registered against a
// [Machine] before [Machine.Start] is called. Per-state data that would be a
// field on a C++ state subclass instead lives on the shared context value C,
// which every hook receives. This avoids allocating a state object per
// transition (a transition still builds its ancestor chains and a visited
// set) and lets the whole state tree be declared as a flat table, the Go-idiomatic
// rendering of what the original expresses through virtual dispatch.
package hfsm

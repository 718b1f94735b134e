// SPDX-License-Identifier: GPL-3.0-or-later

package hfsm

import (
	"github.com/bassosimone/runtimex"
)

// Kind identifies a state in the tree. Callers typically define a small set
// of package-level constants of an unexported int type, or reuse a string
// enum if that reads better for their state names.
type Kind any

// Event is dispatched to the machine's current leaf state and bubbles up
// the ancestor chain until a [Node.Handle] returns true.
type Event any

// Node describes one state in the tree.
//
// Entry, Exit, Init, and Handle are all optional; a nil hook is treated as
// a no-op (Entry/Exit) or as "not handled, keep bubbling" (Handle).
type Node[C any] struct {
	// Parent is the Kind of the immediate parent state, or nil for the root.
	Parent Kind

	// Entry runs when this state becomes active as part of a transition's
	// entry chain.
	Entry func(m *Machine[C])

	// Exit runs when this state stops being active as part of a
	// transition's exit chain.
	Exit func(m *Machine[C])

	// Init runs immediately after Entry and may call [Machine.SetState] to
	// descend into a child state. Composite (non-leaf) states use this to
	// pick their initial child, mirroring initHandler() in the original.
	Init func(m *Machine[C])

	// Handle processes ev and returns true if this state handled it. When
	// it returns false (or is nil), the event bubbles to Parent.
	Handle func(m *Machine[C], ev Event) bool
}

// Machine is a hierarchical state machine over a shared context C.
//
// The zero value is not ready to use; construct with [New].
type Machine[C any] struct {
	// OnTransition, when non-nil, is called after each completed top-level
	// [Machine.SetState] with the leaf that was current before the call and
	// the leaf the machine settled on, intermediate Init-driven descents
	// included. Not called when the transition was a no-op. Used for
	// transition-level structured logging.
	OnTransition func(from, to Kind)

	ctx     C
	nodes   map[Kind]Node[C]
	current Kind
	started bool

	// transitioning holds the set of Kinds visited by the SetState call
	// currently unwinding, or nil between transitions. A SetState invoked
	// from inside an Init hook (directly, or through any number of further
	// nested Init hooks) reuses this same map instead of starting a fresh
	// one, so an indirect Init cycle (A.Init -> SetState(B); B.Init ->
	// SetState(A)) is caught by the same visited-set check that catches a
	// state re-entering itself.
	transitioning map[Kind]bool
}

// New returns a [*Machine] with the given shared context. Register states
// with [Machine.AddState] before calling [Machine.Start].
func New[C any](ctx C) *Machine[C] {
	return &Machine[C]{
		ctx:   ctx,
		nodes: make(map[Kind]Node[C]),
	}
}

// AddState registers a state under kind. Calling AddState twice for the
// same kind, or after [Machine.Start], is a programming error.
func (m *Machine[C]) AddState(kind Kind, node Node[C]) {
	runtimex.Assert(!m.started)
	_, exists := m.nodes[kind]
	runtimex.Assert(!exists)
	m.nodes[kind] = node
}

// Context returns the shared context value.
func (m *Machine[C]) Context() C {
	return m.ctx
}

// Current returns the Kind of the currently active leaf state. Calling this
// before [Machine.Start] is a programming error.
func (m *Machine[C]) Current() Kind {
	runtimex.Assert(m.started)
	return m.current
}

// Start activates top, running its entry chain and init handlers all the
// way down to the resulting leaf. Must be called exactly once.
func (m *Machine[C]) Start(top Kind) {
	runtimex.Assert(!m.started)
	m.started = true
	m.enter(nil, top)
	visited := make(map[Kind]bool)
	m.transitioning = visited
	m.runInit(top, visited)
	m.transitioning = nil
}

// SetState transitions the machine to target. It is a no-op if target is
// already the current leaf state, mirroring the original's identity check
// in setState<T>().
//
// If called from within a Node's Init hook (including transitively, through
// a chain of Init hooks each calling SetState), this reuses the visited set
// of the outermost SetState call instead of starting a new one, so a cycle
// spanning several states is still caught.
func (m *Machine[C]) SetState(target Kind) {
	runtimex.Assert(m.started)
	visited := m.transitioning
	top := visited == nil
	from := m.current
	if top {
		visited = make(map[Kind]bool)
		m.transitioning = visited
		defer func() { m.transitioning = nil }()
	}
	m.setState(target, visited)
	if top && m.OnTransition != nil && m.current != from {
		m.OnTransition(from, m.current)
	}
}

func (m *Machine[C]) setState(target Kind, visited map[Kind]bool) {
	if target == m.current {
		return
	}
	oldChain := m.chain(m.current)
	newChain := m.chain(target)

	lcaIdx := -1
	for i := 0; i < len(oldChain) && i < len(newChain); i++ {
		if oldChain[i] != newChain[i] {
			break
		}
		lcaIdx = i
	}

	// Exit from the old leaf up to, but excluding, the LCA.
	for i := len(oldChain) - 1; i > lcaIdx; i-- {
		if exit := m.nodes[oldChain[i]].Exit; exit != nil {
			exit(m)
		}
	}

	m.current = target

	// Entry from just past the LCA down to the new leaf. An Entry hook may
	// itself transition elsewhere (the original routes connectToNextServer
	// through entry); when that happens the nested SetState has already run
	// the new configuration's entry/init chain, so the rest of this chain —
	// and target's own Init — must not run.
	for i := lcaIdx + 1; i < len(newChain); i++ {
		kind := newChain[i]
		m.current = kind
		if entry := m.nodes[kind].Entry; entry != nil {
			entry(m)
		}
		if m.current != kind {
			return
		}
	}

	m.runInit(target, visited)
}

// runInit invokes target's Init hook, which may call SetState to descend
// further. visited detects a state re-entering itself, directly or through
// a chain of other states' Init hooks, during one top-level SetState call,
// which would otherwise recurse forever: runtimex.Assert turns that
// programming error into a fatal assertion instead of a stack overflow.
func (m *Machine[C]) runInit(target Kind, visited map[Kind]bool) {
	runtimex.Assert(!visited[target])
	visited[target] = true
	if init := m.nodes[target].Init; init != nil {
		init(m)
	}
}

// Dispatch delivers ev to the current leaf state, bubbling up the ancestor
// chain until a Handle hook returns true. Returns whether any state handled
// the event. Calling this before [Machine.Start] is a programming error.
func (m *Machine[C]) Dispatch(ev Event) bool {
	runtimex.Assert(m.started)
	for kind := m.current; ; {
		node := m.nodes[kind]
		if node.Handle != nil && node.Handle(m, ev) {
			return true
		}
		if node.Parent == nil {
			return false
		}
		kind = node.Parent
	}
}

// enter runs Entry for every state from just past `from` (exclusive, usually
// nil meaning "from the root") down to target, used only by Start.
func (m *Machine[C]) enter(from Kind, target Kind) {
	chain := m.chain(target)
	start := 0
	if from != nil {
		for i, k := range chain {
			if k == from {
				start = i + 1
			}
		}
	}
	for i := start; i < len(chain); i++ {
		kind := chain[i]
		m.current = kind
		if entry := m.nodes[kind].Entry; entry != nil {
			entry(m)
		}
	}
}

// chain returns the ancestor path from the root down to kind, inclusive.
func (m *Machine[C]) chain(kind Kind) []Kind {
	var rev []Kind
	for k := kind; ; {
		rev = append(rev, k)
		node, ok := m.nodes[k]
		runtimex.Assert(ok)
		if node.Parent == nil {
			break
		}
		k = node.Parent
	}
	out := make([]Kind, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

package store

import "sync"

// View is a readable, observable value.
type View[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

type subscriber[T any] struct {
	fn    func(T)
	seen  uint64
	fresh bool
}

// notifier holds a versioned value and delivers it to subscribers in
// registration order. At most one goroutine delivers at a time; a write made
// while a delivery pass is running (from a subscriber or another goroutine)
// is picked up by that pass's owner once the pass ends, so every subscriber
// sees versions in increasing order and always ends on the latest one.
// Intermediate versions may be skipped.
type notifier[T any] struct {
	mu         sync.Mutex
	value      T
	version    uint64
	subs       []*subscriber[T]
	delivering bool
}

// set stores v and returns the version it was written under.
func (n *notifier[T]) set(v T) uint64 {
	n.mu.Lock()
	n.value = v
	n.version++
	version := n.version
	owner := n.claimLocked()
	n.mu.Unlock()

	if owner {
		n.deliver()
	}
	return version
}

// resetIf stores v only if nothing has been written since version.
func (n *notifier[T]) resetIf(version uint64, v T) bool {
	n.mu.Lock()
	if n.version != version {
		n.mu.Unlock()
		return false
	}
	n.value = v
	n.version++
	owner := n.claimLocked()
	n.mu.Unlock()

	if owner {
		n.deliver()
	}
	return true
}

func (n *notifier[T]) get() T {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// subscribe registers fn and delivers the current value to it: right away,
// or after the pass in progress when called during a delivery.
func (n *notifier[T]) subscribe(fn func(T)) func() {
	s := &subscriber[T]{fn: fn, fresh: true}

	n.mu.Lock()
	subs := make([]*subscriber[T], 0, len(n.subs)+1)
	n.subs = append(append(subs, n.subs...), s)
	owner := n.claimLocked()
	n.mu.Unlock()

	if owner {
		n.deliver()
	}

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(s) })
	}
}

func (n *notifier[T]) remove(s *subscriber[T]) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, existing := range n.subs {
		if existing == s {
			next := make([]*subscriber[T], 0, len(n.subs)-1)
			next = append(next, n.subs[:i]...)
			n.subs = append(next, n.subs[i+1:]...)
			return
		}
	}
}

func (n *notifier[T]) claimLocked() bool {
	if n.delivering {
		return false
	}
	n.delivering = true
	return true
}

// deliver runs passes until every subscriber has seen the latest version.
// Subscribing or unsubscribing during a pass never affects that pass.
func (n *notifier[T]) deliver() {
	done := false
	defer func() {
		if !done {
			// a subscriber panicked; let the next write deliver again
			n.mu.Lock()
			n.delivering = false
			n.mu.Unlock()
		}
	}()

	for {
		n.mu.Lock()
		value, version := n.value, n.version
		var due []*subscriber[T]
		for _, s := range n.subs {
			if s.fresh || s.seen < version {
				s.fresh = false
				s.seen = version
				due = append(due, s)
			}
		}
		if len(due) == 0 {
			n.delivering = false
			n.mu.Unlock()
			done = true
			return
		}
		n.mu.Unlock()

		for _, s := range due {
			s.fn(value)
		}
	}
}

// Cell is a writable value that notifies its subscribers on every Set.
// Subscribers are called outside the cell lock, in registration order. Set
// may return before subscribers have seen the value when another goroutine
// is already delivering; that goroutine delivers it before it returns.
type Cell[T any] struct {
	n notifier[T]
}

func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.n.value = initial
	return c
}

func (c *Cell[T]) Get() T {
	return c.n.get()
}

// Version counts the writes to the cell; 0 means it still holds its initial value.
func (c *Cell[T]) Version() uint64 {
	c.n.mu.Lock()
	defer c.n.mu.Unlock()
	return c.n.version
}

func (c *Cell[T]) Set(v T) {
	c.n.set(v)
}

func (c *Cell[T]) set(v T) uint64 {
	return c.n.set(v)
}

func (c *Cell[T]) resetIf(version uint64, v T) bool {
	return c.n.resetIf(version, v)
}

// Subscribe calls fn with the current value and then after every Set.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	return c.n.subscribe(fn)
}

// Derived is a read-only view computed from a source. Get recomputes from the
// source; subscribers receive a fresh computation of every source value
// pushed to the view, with the same ordering guarantees as a Cell.
type Derived[S, T any] struct {
	source  View[S]
	compute func(S) T

	n notifier[S]
}

func NewDerived[S, T any](source View[S], compute func(S) T) *Derived[S, T] {
	d := &Derived[S, T]{
		source:  source,
		compute: compute,
	}
	source.Subscribe(func(s S) {
		d.n.set(s)
	})
	return d
}

func (d *Derived[S, T]) Get() T {
	return d.compute(d.source.Get())
}

func (d *Derived[S, T]) Subscribe(fn func(T)) func() {
	return d.n.subscribe(func(s S) {
		fn(d.compute(s))
	})
}

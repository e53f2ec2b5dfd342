package rc

// Weak is a non-owning observer of a control block. It never keeps the
// payload alive and never participates in the adoption ledger; Upgrade is
// the only way to get back a Strong handle, and it fails once the payload
// is gone.
type Weak[T any] struct {
	n        *node
	dangling bool
	released bool
}

// Dangling returns a Weak[T] that never upgrades, the same way a
// default-constructed weak_ptr behaves: useful as a zero value for struct
// fields before a real control block exists.
func Dangling[T any]() *Weak[T] {
	return &Weak[T]{dangling: true}
}

// Clone increments the weak count and returns a new handle to the same
// control block. Cloning a dangling Weak just returns another dangling one.
func (w *Weak[T]) Clone() *Weak[T] {
	w.mustLive()
	if w.dangling {
		return Dangling[T]()
	}
	w.n.incWeak()
	return &Weak[T]{n: w.n}
}

// Upgrade returns a new Strong handle if the payload is still alive, or
// (nil, false) if it has already been dropped (or this Weak is dangling).
// A successful Upgrade increments the strong count.
func (w *Weak[T]) Upgrade() (*Strong[T], bool) {
	w.mustLive()
	if w.dangling {
		return nil, false
	}
	if w.n.strong == 0 || w.n.tombstone || w.n.dropped {
		return nil, false
	}
	b, ok := w.n.boxRef.(*box[T])
	if !ok {
		return nil, false
	}
	w.n.incStrong()
	return &Strong[T]{n: w.n, b: b}, true
}

// Drop releases this handle's share of weak ownership. A no-op on a
// dangling Weak.
func (w *Weak[T]) Drop() {
	w.mustLive()
	w.released = true
	if w.dangling {
		return
	}
	w.n.decWeak()
}

func (w *Weak[T]) mustLive() {
	if w.released {
		panic("rc: Weak handle used after Drop")
	}
}

package rc

import "runtime/cgo"

// box is the typed storage cell for a Strong[T]'s payload. It is kept
// separate from node (the untyped control block) precisely so node never
// needs a type parameter: Adopt, the Reachability Oracle, and the Drop
// Coordinator all operate on *node alone, regardless of what T is on either
// side of an adoption edge.
type box[T any] struct {
	value T
}

// Dropper lets a payload run its own cleanup during the Payload-drop phase,
// before its control block zeroes the value out. Implement it on *T (or on T
// itself, e.g. when T is a pointer type) when T
// holds resources the Drop Coordinator can't see, or when a struct's fields
// include Strong/Weak handles to things outside its own adoption edges and
// those need their own Drop calls. Ordinary payloads don't need it.
type Dropper interface {
	Drop()
}

// Strong is an owning handle to a shared, cycle-collected value of type T.
// Construct one with New or NewWithConfig; release it with Drop exactly
// once. The zero Strong[T] is not usable; there is no nil-equivalent
// sentinel the way there is for Weak.
type Strong[T any] struct {
	n        *node
	b        *box[T]
	released bool
}

// New allocates a control block holding value and returns the first Strong
// handle to it, with default collector behavior (no component-size cap).
func New[T any](value T) *Strong[T] {
	return NewWithConfig(value, DefaultCollectorConfig())
}

// NewWithConfig is New, but lets the caller tune how aggressively the
// Reachability Oracle bounds its traversal and where its diagnostics go.
// The config is captured on this control block only; the Reachability
// Oracle uses it whenever a Drop on a handle to this node starts a walk.
// Walks started from other nodes use those nodes' own configs.
func NewWithConfig[T any](value T, cfg CollectorConfig) *Strong[T] {
	b := &box[T]{value: value}
	n := newNode(cfg, func() {
		if d, ok := any(&b.value).(Dropper); ok {
			d.Drop()
		} else if d, ok := any(b.value).(Dropper); ok {
			d.Drop()
		}
		var zero T
		b.value = zero
	})
	n.boxRef = b
	return &Strong[T]{n: n, b: b}
}

// Clone increments the strong count and returns a new handle sharing the
// same control block. Panics if the strong count is already saturated.
func (s *Strong[T]) Clone() *Strong[T] {
	s.mustLive()
	s.n.incStrong()
	return &Strong[T]{n: s.n, b: s.b}
}

// Get returns a pointer to the shared payload. Panics if the payload has
// already been dropped, which should never happen while any live Strong
// handle remains (that is the whole point of the strong count), but can be
// observed if a handle is used after Drop.
func (s *Strong[T]) Get() *T {
	s.mustLive()
	if s.n.dropped {
		panic("rc: deref of dropped control block")
	}
	return &s.b.value
}

// StrongCount returns the number of live Strong handles to this block.
func (s *Strong[T]) StrongCount() uint32 {
	s.mustLive()
	return s.n.strong
}

// WeakCount returns the number of live Weak handles, excluding the implicit
// strong-weak share.
func (s *Strong[T]) WeakCount() uint32 {
	s.mustLive()
	if s.n.strong > 0 {
		return s.n.weak - 1
	}
	return s.n.weak
}

// Downgrade returns a new Weak handle to the same control block.
func (s *Strong[T]) Downgrade() *Weak[T] {
	s.mustLive()
	s.n.incWeak()
	return &Weak[T]{n: s.n}
}

// Equal reports whether s and other share the same control block.
func (s *Strong[T]) Equal(other *Strong[T]) bool {
	if other == nil {
		return false
	}
	return s.n == other.n
}

// IntoRaw returns an opaque handle to the control block as a uintptr,
// without changing any count. A bare uintptr cast from a *node would not
// keep the control block reachable for the host garbage collector between
// IntoRaw and a later FromRaw — if the caller also drops every other
// handle in the meantime, the block could be collected out from under the
// raw value. IntoRaw instead mints the uintptr via runtime/cgo.Handle,
// which keeps the control block pinned in a runtime-owned registry for
// exactly as long as the handle is outstanding, the same mechanism cgo
// bindings use to round-trip a Go pointer through a C-held opaque value.
// The caller takes on the obligation to eventually reconstruct exactly one
// Strong handle from it via FromRaw (or to accept the leaked share);
// calling IntoRaw and never calling FromRaw leaks the share, and the
// registry entry with it, the same way forgetting to call Drop would.
func (s *Strong[T]) IntoRaw() uintptr {
	s.mustLive()
	return uintptr(cgo.NewHandle(s.n))
}

// FromRaw reconstructs a Strong[T] from a uintptr previously produced by
// IntoRaw on a Strong[T] of the same T, without changing any count. It
// deletes the underlying cgo.Handle, releasing the pin IntoRaw took on the
// control block; calling it on a uintptr that did not come from IntoRaw,
// calling it twice on the same uintptr, or calling it with the wrong T, is
// undefined behavior — the library does not and cannot check this.
func FromRaw[T any](ptr uintptr) *Strong[T] {
	h := cgo.Handle(ptr)
	n, ok := h.Value().(*node)
	if !ok {
		panic("rc: FromRaw called with a uintptr that did not come from IntoRaw")
	}
	h.Delete()
	b, ok := n.boxRef.(*box[T])
	if !ok {
		panic("rc: FromRaw called with the wrong type parameter")
	}
	return &Strong[T]{n: n, b: b}
}

// Drop releases this handle's share of strong ownership. When it is the
// last Strong handle pointing into its strongly-connected component of
// adoption edges, this triggers the Drop Coordinator.
func (s *Strong[T]) Drop() {
	s.mustLive()
	s.released = true
	n := s.n
	n.decStrong()
	onStrongDecrement(n)
}

func (s *Strong[T]) mustLive() {
	if s.released {
		panic("rc: Strong handle used after Drop")
	}
}

// Package rc implements a single-threaded, cycle-aware, reference-counted
// smart pointer. It is a building block for heaps of interpreted languages
// (object graphs with arbitrary mutual ownership) and for ordinary
// self-referential data structures (rings, doubly-linked lists, parent
// pointers) that would otherwise leak under plain reference counting.
//
// Strong[T] behaves like a classical non-atomic Rc: Clone shares ownership,
// Drop releases it, and the payload is dropped the moment the last Strong
// handle goes away. Weak[T] observes without owning. On top of that,
// Adopt/Unadopt let a payload record that it holds an owning Strong handle
// to another value; when the last external Strong handle into a strongly-
// connected component of such adoptions goes away, the Drop Coordinator
// detects the orphaned cycle and tears it down deterministically, without
// a full heap scan and without requiring the user to route the cycle
// through a Weak handle.
//
// This package is not safe for concurrent use. Every Strong, Weak, and the
// control blocks they share must only ever be touched from one goroutine.
// Unlike this module's own diagnostic logger and config types (which are
// safe to share read-only), nothing here takes a lock, by design: the
// source model this library implements is explicitly single-threaded, and
// adding synchronization would only mask bugs in graphs that are meant to
// be thread-confined in the first place.
//
// Go has no implicit destructors, so unlike the source model this package
// adapts, Strong.Drop and Weak.Drop must be called explicitly by the owner
// exactly once. Forgetting to call Drop leaks the share it holds (the
// control block simply stays reachable, like any other Go value a
// reference to which was never released) but never corrupts the graph.
package rc

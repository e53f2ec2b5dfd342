package rc

// Adopt records that parent's payload holds an owning Strong handle to
// child's payload. It does not change either control block's strong or
// weak count — Clone already did that when the caller obtained the Strong
// handle it's about to store — it only adds one unit of multiplicity to
// the adoption ledger, so the Reachability Oracle and Drop Coordinator know
// the edge exists.
//
// Call Adopt exactly once per owning reference actually stored in the
// payload (e.g. once per element pushed onto a slice field, once per map
// entry). Calling it more times than there are real stored references, or
// fewer, desynchronizes the ledger from the object graph and will cause
// either a premature collection or a permanent leak.
func Adopt[P, C any](parent *Strong[P], child *Strong[C]) {
	parent.mustLive()
	child.mustLive()
	addEdge(parent.n, child.n)
}

// Unadopt reverses one Adopt: it removes one unit of multiplicity for the
// parent -> child edge. Call it when the stored reference is overwritten or
// removed, before the corresponding Strong[C].Drop.
func Unadopt[P, C any](parent *Strong[P], child *Strong[C]) {
	parent.mustLive()
	child.mustLive()
	removeEdge(parent.n, child.n)
}

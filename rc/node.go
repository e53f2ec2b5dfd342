package rc

import "math"

// node is the untyped control block shared by every Strong and Weak handle
// that points at one allocation. It holds the counters, the tombstone/drop
// bookkeeping, and the adoption ledger (forward/backward multisets). The
// typed payload itself lives behind the dropFn closure captured at
// construction time in New, so node never needs a type parameter — this is
// what lets Adopt/Unadopt and the Reachability Oracle operate across
// differently-typed Strong[P]/Strong[C] pairs.
type node struct {
	id   uint64
	cfg  CollectorConfig

	strong       uint32
	weak         uint32
	tombstone    bool
	dropped      bool
	biasReleased bool

	// forward[c] is the number of owning handles this node's payload holds
	// to c; backward[p] is the number of owning handles p's payload holds
	// to this node. adopt/unadopt keep both sides of every edge in sync.
	forward  map[*node]int
	backward map[*node]int

	dropFn func()

	// boxRef holds the *box[T] for whatever T this control block was built
	// with, type-erased. Strong[T]/Weak[T] type-assert it back to *box[T]
	// in FromRaw and Upgrade, where only the node pointer is in hand.
	boxRef any
}

const maxCount = math.MaxUint32

var nextNodeID uint64

// newNode allocates a fresh control block with strong=1, weak=1 (the
// implicit strong-weak share), and empty adoption tables.
func newNode(cfg CollectorConfig, dropFn func()) *node {
	nextNodeID++
	return &node{
		id:       nextNodeID,
		cfg:      cfg,
		strong:   1,
		weak:     1,
		forward:  make(map[*node]int),
		backward: make(map[*node]int),
		dropFn:   dropFn,
	}
}

func (n *node) incStrong() {
	if n.strong == maxCount {
		panic("rc: strong count overflow")
	}
	n.strong++
}

// decStrong decrements strong by one. The caller (Strong.Drop, or a
// reentrant Drop triggered from inside a payload's own Drop method) must
// already hold a live share; dropping an already-dropped handle panics.
func (n *node) decStrong() {
	if n.strong == 0 {
		panic("rc: strong count underflow (handle dropped twice?)")
	}
	n.strong--
}

func (n *node) incWeak() {
	if n.weak == maxCount {
		panic("rc: weak count overflow")
	}
	n.weak++
}

func (n *node) decWeak() {
	if n.weak == 0 {
		panic("rc: weak count underflow (handle dropped twice?)")
	}
	n.weak--
}

// releaseWeakBias drops the implicit strong-weak share exactly once. It is
// safe to call from both the short-circuit re-entry path and the explicit
// weak-release phase of an S3 teardown: whichever runs first wins, the
// other is a no-op.
func (n *node) releaseWeakBias() {
	if n.biasReleased {
		return
	}
	n.biasReleased = true
	n.decWeak()
}

// dropPayloadOnce invokes the type-erased drop callback exactly once. Safe
// to call redundantly from both a reentrant cascade and the coordinator's
// own component sweep.
func (n *node) dropPayloadOnce() {
	if n.dropped {
		return
	}
	n.dropped = true
	if n.dropFn != nil {
		n.dropFn()
	}
}

// addEdge records one unit of multiplicity for parent -> child in both
// directions.
func addEdge(parent, child *node) {
	parent.forward[child]++
	child.backward[parent]++
}

// removeEdge removes one unit of multiplicity for parent -> child in both
// directions; a no-op if no such edge exists.
func removeEdge(parent, child *node) {
	if parent.forward[child] == 0 {
		return
	}
	parent.forward[child]--
	if parent.forward[child] == 0 {
		delete(parent.forward, child)
	}
	child.backward[parent]--
	if child.backward[parent] == 0 {
		delete(child.backward, parent)
	}
}

// unlinkFromNeighbors erases every edge between n and its neighbors (in both
// the forward and backward tables, on both sides), then empties n's own
// tables. Neighbor lists are snapshotted into slices before any mutation so
// that a self-loop (n present in its own forward/backward table) can't
// corrupt the map being ranged over.
func (n *node) unlinkFromNeighbors() {
	forwardNeighbors := make([]*node, 0, len(n.forward))
	for neighbor := range n.forward {
		forwardNeighbors = append(forwardNeighbors, neighbor)
	}
	backwardNeighbors := make([]*node, 0, len(n.backward))
	for neighbor := range n.backward {
		backwardNeighbors = append(backwardNeighbors, neighbor)
	}

	for _, neighbor := range forwardNeighbors {
		if neighbor != n {
			delete(neighbor.backward, n)
		}
	}
	for _, neighbor := range backwardNeighbors {
		if neighbor != n {
			delete(neighbor.forward, n)
		}
	}

	n.forward = make(map[*node]int)
	n.backward = make(map[*node]int)
}

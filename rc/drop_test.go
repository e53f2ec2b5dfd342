package rc

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/eth2030/rcheap/internal/rclog"
)

// recordingHandler is a minimal slog.Handler that stores records instead of
// writing them anywhere, so tests can assert on what the collector logged.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// ringNode is a self-referential payload: each instance holds a Strong
// handle to the next one around the ring.
type ringNode struct {
	next *Strong[ringNode]
}

func TestS1AcyclicDropsOnLastHandle(t *testing.T) {
	var dropped bool
	s := New(&dropperStruct{onDrop: func() { dropped = true }})
	s.Drop()
	if !dropped {
		t.Error("lone, edge-free handle should drop its payload immediately")
	}
}

func TestS1SharedHandleSurvivesUntilLastClone(t *testing.T) {
	var dropped bool
	s := New(&dropperStruct{onDrop: func() { dropped = true }})
	c1 := s.Clone()
	c2 := s.Clone()

	s.Drop()
	c1.Drop()
	if dropped {
		t.Fatal("payload dropped before the last clone released")
	}
	c2.Drop()
	if !dropped {
		t.Error("payload should drop once the last clone releases")
	}
}

// TestS3MutualRingCollectsOnceOrphaned builds the canonical two-node cycle:
// a holds a Strong handle to b and b holds one back to a, each recorded in
// the adoption ledger. Neither node's strong count ever reaches zero from
// an external Drop alone, so this only collects because the coordinator
// re-runs the Reachability Oracle on every decrement, not just on literal
// zero crossings.
func TestS3MutualRingCollectsOnceOrphaned(t *testing.T) {
	a := New(ringNode{})
	b := New(ringNode{})

	bShareHeldByA := b.Clone()
	a.Get().next = bShareHeldByA
	Adopt(a, bShareHeldByA)

	aShareHeldByB := a.Clone()
	b.Get().next = aShareHeldByB
	Adopt(b, aShareHeldByB)

	aNode := a.n
	bNode := b.n

	a.Drop() // a.strong: 2 -> 1 (aShareHeldByB keeps it alive); not yet orphaned
	if aNode.tombstone {
		t.Fatal("ring should not collect while b's external handle is still live")
	}

	b.Drop() // b.strong: 2 -> 1; now both counts are fully internal: orphaned
	if !aNode.tombstone || !bNode.tombstone {
		t.Fatal("mutual ring should collect once both external handles are gone")
	}
}

// TestS3ChainOfThreeCollectsTogether checks a non-cyclic but still
// multi-node component: a -> b -> c, all owned only through the chain.
// Dropping the sole external handle on a should tear down all three.
func TestS3ChainOfThreeCollectsTogether(t *testing.T) {
	a := New(1)
	b := New(2)
	c := New(3)

	// b and c's only strong handles are the ones a and b's payloads hold,
	// respectively; nothing else keeps either of them alive.
	Adopt(a, b)
	Adopt(b, c)

	a.Drop()

	if !a.n.tombstone || !b.n.tombstone || !c.n.tombstone {
		t.Error("chain fully owned through adoption edges should collect as one component")
	}
}

func TestS2DefensiveFallbackLogsAndStillDropsPayload(t *testing.T) {
	rec := &recordingHandler{}
	cfg := CollectorConfig{Logger: rclog.NewWithHandler(rec)}

	var dropped bool
	a := NewWithConfig(&dropperStruct{onDrop: func() { dropped = true }}, cfg)
	b := NewWithConfig(&dropperStruct{}, cfg)

	// Desynchronize the ledger from the object graph on purpose: record an
	// adoption edge without actually holding a matching cloned Strong
	// handle, which is exactly the kind of bug the defensive fallback
	// exists to surface rather than silently mishandle.
	addEdge(b.n, a.n)

	a.Drop()

	if !dropped {
		t.Error("S2 fallback should still drop the anomalous node's payload")
	}
	if rec.count() == 0 {
		t.Error("S2 fallback should log a warning")
	}
}

// ringPayload is scenario 4's per-node payload: a sizable byte blob plus
// the link slot and its own drop callback, so the test also exercises
// payloads bigger than a single pointer moving through the Drop
// Coordinator.
type ringPayload struct {
	blob   [1 << 20]byte
	next   *Strong[ringPayload]
	onDrop func()
}

func (r *ringPayload) Drop() {
	if r.onDrop != nil {
		r.onDrop()
	}
}

// TestS3TenNodeRingPopAndRecount is scenario 4 from SPEC_FULL.md §8: a
// doubly linked ring of 10 nodes, each holding a 1 MiB payload. One node is
// popped out of the ring (its neighbors re-adopt each other to keep the
// remaining 9 as a ring), and both the popped node's and the ring-head's
// strong counts are checked before anything is dropped. Dropping the
// popped node, then the rest of the ring, must fire all 10 payload drops
// exactly once each.
func TestS3TenNodeRingPopAndRecount(t *testing.T) {
	const n = 10
	var dropCount int
	ring := make([]*Strong[ringPayload], n)
	for i := range ring {
		i := i
		ring[i] = New(ringPayload{onDrop: func() { dropCount++; _ = i }})
	}

	// Wire each node's internal handle to the next one around the ring,
	// recording a matching adoption edge.
	for i := range ring {
		next := ring[(i+1)%n].Clone()
		ring[i].Get().next = next
		Adopt(ring[i], next)
	}

	// Pop node 3 out of the ring: node 2 must adopt node 4 directly, and
	// the handle node 2 used to hold on node 3 is released (Unadopt, then
	// Drop, since the stored reference is being overwritten).
	popIdx := 3
	prevIdx := (popIdx - 1 + n) % n
	nextIdx := (popIdx + 1) % n

	oldLink := ring[prevIdx].Get().next
	Unadopt(ring[prevIdx], oldLink)
	oldLink.Drop()

	newLink := ring[nextIdx].Clone()
	ring[prevIdx].Get().next = newLink
	Adopt(ring[prevIdx], newLink)

	popped := ring[popIdx]
	if got := popped.StrongCount(); got != 1 {
		t.Fatalf("popped node strong count = %d, want 1", got)
	}
	ringHead := ring[nextIdx]
	if got := ringHead.StrongCount(); got != 3 {
		t.Fatalf("ring-head strong count = %d, want 3 (external, prev's re-adopted clone, popped node's still-live clone)", got)
	}

	// Finish extracting the popped node: release its own leftover clone of
	// the ring-head (the other half of fully detaching it from the ring),
	// so its later Drop takes the plain edge-free fast path instead of
	// leaving a dangling, never-released share on the ring-head.
	poppedOutLink := popped.Get().next
	Unadopt(popped, poppedOutLink)
	poppedOutLink.Drop()

	popped.Drop()
	for i := 0; i < n; i++ {
		if i == popIdx {
			continue
		}
		ring[i].Drop()
	}

	if dropCount != n {
		t.Errorf("dropCount = %d, want %d (one payload drop per ring node)", dropCount, n)
	}
}

// TestS3SelfLoopCollectsOnceAtCoordinator is scenario 5 from SPEC_FULL.md
// §8: a node adopts itself twice, simulating {A: A, A: A}. Dropping its
// external handle must still fire exactly one payload drop, exercised here
// through the Drop Coordinator rather than node.go's own bookkeeping-only
// self-loop test.
func TestS3SelfLoopCollectsOnceAtCoordinator(t *testing.T) {
	var dropCount int
	a := New(&dropperStruct{onDrop: func() { dropCount++ }})

	self1 := a.Clone()
	Adopt(a, self1)
	self2 := a.Clone()
	Adopt(a, self2)

	a.Drop()

	if dropCount != 1 {
		t.Errorf("dropCount = %d, want 1 for a doubly self-adopting node", dropCount)
	}
}

// TestS6WeakUpgradeFailsAfterCycleCollection is scenario 6 from
// SPEC_FULL.md §8: ring A->B->C->A, with a weak handle to A taken before
// any strong handle in the ring is dropped. After dropping every strong
// handle in the ring, w.Upgrade() must return (nil, false).
//
// This specifically exercises the tombstone/dropped-flag rejection path,
// not the strong==0 one: runS3 never zeroes a surviving member's strong
// field (the internal clones that kept the ring alive are never
// individually Dropped), so at the moment Upgrade runs, a.n.strong is still
// whatever it was before collection. Upgrade only rejects because runS3 set
// a.n.tombstone and a.n.dropped; if both flag checks were removed, this
// test would wrongly pass a dead control block back out as live.
func TestS6WeakUpgradeFailsAfterCycleCollection(t *testing.T) {
	a := New(ringNode{})
	b := New(ringNode{})
	c := New(ringNode{})

	bShare := b.Clone()
	a.Get().next = bShare
	Adopt(a, bShare)

	cShare := c.Clone()
	b.Get().next = cShare
	Adopt(b, cShare)

	aShare := a.Clone()
	c.Get().next = aShare
	Adopt(c, aShare)

	w := a.Downgrade()

	strongBeforeDrop := a.n.strong

	a.Drop()
	b.Drop()
	c.Drop()

	if !a.n.tombstone {
		t.Fatal("ring should have collected once all three external handles dropped")
	}
	if a.n.strong == 0 {
		t.Fatal("this scenario requires strong to still read nonzero post-collection, to prove Upgrade rejects via the tombstone/dropped flags rather than strong==0")
	}
	if a.n.strong != strongBeforeDrop-1 {
		t.Fatalf("a.n.strong = %d, want %d (only the external Drop should have decremented it; internal clones are never individually dropped)", a.n.strong, strongBeforeDrop-1)
	}

	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade should return (nil, false) once the ring has collected")
	}
}

func TestDanglingComponentMemberNeverReentersAfterTombstone(t *testing.T) {
	a := New(ringNode{})
	b := New(ringNode{})

	bShare := b.Clone()
	a.Get().next = bShare
	Adopt(a, bShare)

	aShare := a.Clone()
	b.Get().next = aShare
	Adopt(b, aShare)

	a.Drop()
	b.Drop()

	// Both control blocks are tombstoned; releasing the weak bias again
	// through a reentrant-looking call must be a no-op, not a panic.
	a.n.releaseWeakBias()
	b.n.releaseWeakBias()
}

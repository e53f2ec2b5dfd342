package rc

// onStrongDecrement is the Drop Coordinator's entry point. It runs after
// every Strong[T].Drop has already decremented n.strong, and decides
// whether that was merely one fewer share of an object with no cycles
// (S1), the closing of an orphaned strongly-connected component (S3), or
// an anomaly the Reachability Oracle flags defensively (S2).
//
// A literal reading of "run the coordinator when strong reaches zero"
// cannot collect the canonical case this package exists for: two nodes
// that each hold an internal Strong handle to the other never reach
// strong==0 from external drops alone, because each one's own internal
// clone keeps the other's count at one. So the oracle runs on every
// decrement that touches a node with any adoption edges at all, and
// classifies orphaned-ness as strong(n) == ownedWithin(n) summed across
// the whole component, not as strong(n) == 0. The literal zero check only
// matters for nodes with no edges (S1) and as the defensive-anomaly signal
// inside a non-orphaned component (S2).
func onStrongDecrement(n *node) {
	if n.tombstone {
		n.releaseWeakBias()
		return
	}

	if len(n.forward) == 0 && len(n.backward) == 0 {
		if n.strong == 0 {
			n.tombstone = true
			n.dropPayloadOnce()
			n.releaseWeakBias()
		}
		return
	}

	comp := computeComponent(n, n.cfg)
	if comp.orphaned {
		runS3(comp)
		return
	}

	if n.strong == 0 {
		// S2: the oracle says something outside this component still
		// anchors it, yet this node's own strong count hit zero. That
		// combination only arises if the adoption ledger and the real
		// object graph have drifted apart (an Adopt call that wasn't
		// balanced by a matching Strong.Clone, or vice versa). Unlink n
		// defensively so a dangling edge doesn't corrupt a later oracle
		// run on its former neighbors, then drop its payload; the rest of
		// the component is left exactly as the oracle found it.
		n.tombstone = true
		n.unlinkFromNeighbors()
		n.cfg.logger().Warn("rc: node strong count reached zero inside a non-orphaned component",
			"nodeID", n.id, "componentSize", len(comp.members))
		n.dropPayloadOnce()
		n.releaseWeakBias()
	}
}

// runS3 tears down a confirmed-orphaned component. The whole component was
// already captured by computeComponent before runS3 was called, so runS3
// first unlinks every member (leaving no ledger edge for a later oracle run
// to follow back into it), then marks every member as doomed before any
// payload is touched (so a payload's own Drop method, if it reaches another
// member through a plain Go reference and calls Strong.Drop reentrantly,
// short-circuits instead of re-running the oracle), then drops the other
// members' payloads and the start node's last, and finally releases weak
// shares. comp.members[0] is always the start node.
func runS3(comp component) {
	for _, m := range comp.members {
		m.unlinkFromNeighbors()
	}
	for _, m := range comp.members {
		m.tombstone = true
	}
	for _, m := range comp.members[1:] {
		m.dropPayloadOnce()
	}
	comp.members[0].dropPayloadOnce()
	for _, m := range comp.members {
		m.releaseWeakBias()
	}
}

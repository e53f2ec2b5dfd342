package rc

// component is the result of walking the adoption ledger outward from one
// node: every control block reachable via forward or backward edges, plus
// enough bookkeeping to decide whether the whole group is orphaned.
type component struct {
	members []*node
	// ownedWithin[n] is the total multiplicity of adoption edges from other
	// members of this component (including n itself, for self-loops) into
	// n. While the ledger matches the object graph it is <= n.strong, since
	// every such edge corresponds to a live Strong handle counted in
	// n.strong; an unbalanced Adopt can make it larger (the S2 case).
	ownedWithin map[*node]int
	orphaned    bool
	capped      bool
}

// computeComponent runs the Reachability Oracle starting from start: a
// breadth-first walk over the undirected union of the forward and backward
// adoption tables, recording per-node internal ownership as it goes. The
// component is orphaned when every member's strong count is fully
// accounted for by edges from other members of the same component — i.e.
// no handle from outside the component keeps any of it alive.
//
// If cfg.MaxComponentSize is positive and the walk would visit more nodes
// than that, the walk stops early, logs a warning, and reports capped=true,
// orphaned=false: an oversized component is always treated as if it still
// has an external owner, never torn down defensively.
func computeComponent(start *node, cfg CollectorConfig) component {
	visited := map[*node]bool{start: true}
	queue := []*node{start}

	var members []*node
	for len(queue) > 0 {
		if cfg.MaxComponentSize > 0 && len(members) >= cfg.MaxComponentSize {
			cfg.logger().Warn("rc: component size cap reached, treating as non-orphaned",
				"cap", cfg.MaxComponentSize, "startID", start.id)
			return component{capped: true, orphaned: false}
		}

		n := queue[0]
		queue = queue[1:]
		members = append(members, n)

		for neighbor := range n.forward {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
		for neighbor := range n.backward {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	// visited already contains exactly the members discovered above; reuse
	// it instead of rebuilding the same set a second time.
	ownedWithin := make(map[*node]int, len(members))
	orphaned := true
	for _, m := range members {
		total := 0
		for src := range m.backward {
			if visited[src] {
				total += src.forward[m]
			}
		}
		ownedWithin[m] = total
		if int(m.strong) > total {
			orphaned = false
		}
	}

	return component{members: members, ownedWithin: ownedWithin, orphaned: orphaned}
}

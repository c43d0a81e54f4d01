// Package deps implements the Dependency Engine: a pure function from
// a task set to a classified task set plus cycle list and stats
// (spec.md §4.3).
package deps

// FindCycles computes the strongly connected components of the graph
// described by edgesOf (node id -> its outgoing edge ids) via Tarjan's
// algorithm, and reports every SCC of size >= 2 (spec.md §8: "a task
// is in_cycle iff it participates in an SCC of size >= 2") plus every
// size-1 SCC that is a self-loop. It is shared between internal/deps
// (task dependency cycles) and internal/features (feature dependency
// cycles), parameterized over the edge-extraction function per
// SPEC_FULL.md §6.4.
//
// A single-pass DFS that marks a node in_cycle only on a direct back
// edge misses merge topologies like A->B, A->C, B->D, C->D, D->A:
// D closes the cycle back to A via the A->B->D path and is marked
// fully explored (black) before A->C->D is ever visited, so C is never
// flagged even though C->D->A->C is a real cycle in the same
// component as A, B, D. Tarjan's low-link computation finds the whole
// component regardless of visit order, which a plain back-edge check
// cannot.
func FindCycles(nodes []string, edgesOf func(id string) []string) (inCycle map[string]bool, cycles [][]string) {
	index := 0
	indices := make(map[string]int, len(nodes))
	lowlink := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var stack []string
	inCycle = make(map[string]bool)

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edgesOf(v) {
			if _, visited := indices[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] != indices[v] {
			return
		}

		var scc []string
		for {
			n := len(stack) - 1
			w := stack[n]
			stack = stack[:n]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}

		if len(scc) > 1 || selfLoop(scc[0], edgesOf) {
			cycles = append(cycles, scc)
			for _, n := range scc {
				inCycle[n] = true
			}
		}
	}

	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongconnect(n)
		}
	}

	return inCycle, cycles
}

// selfLoop reports whether n depends on itself.
func selfLoop(n string, edgesOf func(id string) []string) bool {
	for _, next := range edgesOf(n) {
		if next == n {
			return true
		}
	}
	return false
}

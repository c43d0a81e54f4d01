package deps

import "github.com/brainforge/braind/internal/types"

// closedClassifications backs the "classification is one of the six
// closed values" invariant checked by assert.Always in Classify.
var closedClassifications = map[types.Classification]bool{
	types.ClassReady:           true,
	types.ClassWaiting:         true,
	types.ClassWaitingOnParent: true,
	types.ClassBlocked:         true,
	types.ClassBlockedByParent: true,
	types.ClassNotPending:      true,
}

func allClassificationsClosed(tasks []types.ClassifiedTask) bool {
	for _, t := range tasks {
		if !closedClassifications[t.Classification] {
			return false
		}
	}
	return true
}

// cycleMembershipSound checks that in_cycle is set exactly for tasks
// participating in a reported cycle (spec.md §8: "a task is in_cycle
// iff it participates in a strongly-connected component of size ≥ 2
// ..., or is self-referential").
func cycleMembershipSound(tasks []types.ClassifiedTask, cycles [][]string) bool {
	inAnyCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, id := range c {
			inAnyCycle[id] = true
		}
	}
	for _, t := range tasks {
		if t.InCycle != inAnyCycle[t.ID] {
			return false
		}
	}
	return true
}

// resolvedUnresolvedPartition checks that resolved_deps ∪ unresolved_deps
// has as many distinct members as normalize(depends_on as set). Only
// the counts are compared, not the members themselves: resolved deps
// are stored as task ids, while depends_on refs may be stems or paths.
func resolvedUnresolvedPartition(tasks []types.ClassifiedTask) bool {
	for _, t := range tasks {
		want := make(map[string]bool, len(t.DependsOn))
		for _, ref := range t.DependsOn {
			_, local := normalizeRef(ref)
			want[local] = true
		}
		got := make(map[string]bool, len(t.ResolvedDeps)+len(t.UnresolvedDeps))
		for _, id := range t.ResolvedDeps {
			got[id] = true
		}
		for _, ref := range t.UnresolvedDeps {
			_, local := normalizeRef(ref)
			got[local] = true
		}
		if len(want) != len(got) {
			return false
		}
	}
	return true
}

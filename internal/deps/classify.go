package deps

import (
	"os"
	"sort"

	"github.com/antithesishq/antithesis-sdk-go/assert"
	"github.com/brainforge/braind/internal/gitutil"
	"github.com/brainforge/braind/internal/types"
)

// Stats summarizes one Classify run, per spec.md §4.3's {tasks,
// cycles, stats} output shape.
type Stats struct {
	Total          int
	Ready          int
	Waiting        int
	WaitingParent  int
	Blocked        int
	BlockedParent  int
	NotPending     int
	CycleCount     int
}

// Result is the Dependency Engine's output.
type Result struct {
	Tasks  []types.ClassifiedTask
	Cycles [][]string
	Stats  Stats
}

// blockingAncestorStatuses are the ancestor statuses that make a
// child blocked_by_parent outright (spec.md §4.3 step 5).
var blockingAncestorStatuses = map[types.EntryStatus]bool{
	types.StatusBlocked:    true,
	types.StatusCancelled:  true,
}

// terminalDepStatuses are the dependency statuses that satisfy a
// dependency (resolve it out of waiting_on).
var terminalDepStatuses = map[types.EntryStatus]bool{
	types.StatusCompleted: true,
	types.StatusValidated: true,
}

// blockedDepStatuses are dependency statuses that make a dependent
// task blocked outright, per spec.md §4.3 Pass A.
var blockedDepStatuses = map[types.EntryStatus]bool{
	types.StatusBlocked:    true,
	types.StatusCancelled:  true,
	types.StatusSuperseded: true,
	types.StatusArchived:   true,
}

// nonBlockingActiveAncestorStatuses are ancestor statuses that do NOT
// push a child into waiting_on_parent (spec.md §4.3 step 5's
// "completed, validated, active, in_progress" allowlist).
var nonBlockingActiveAncestorStatuses = map[types.EntryStatus]bool{
	types.StatusCompleted:  true,
	types.StatusValidated:  true,
	types.StatusActive:     true,
	types.StatusInProgress: true,
}

// Classify is the Dependency Engine's pure function: given a task
// set, compute classification, cycles, and stats. It is O(V+E) and
// holds no state between calls; callers may cache results but must
// invalidate on any write to a task (spec.md §4.3).
func Classify(tasks []types.Entry) Result {
	byID := make(map[string]*types.Entry, len(tasks))
	byStem := make(map[string]*types.Entry, len(tasks))
	byTitle := make(map[string]*types.Entry, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		byID[t.ID] = t
		byStem[filenameStem(t.Path)] = t
		byTitle[t.Title] = t
	}

	resolve := func(ref string) *types.Entry {
		_, local := normalizeRef(ref)
		if e, ok := byID[local]; ok {
			return e
		}
		if e, ok := byStem[local]; ok {
			return e
		}
		if e, ok := byTitle[local]; ok {
			return e
		}
		return nil
	}

	classified := make([]types.ClassifiedTask, len(tasks))
	resolvedDepsOf := make(map[string][]string, len(tasks))

	for i, t := range tasks {
		ct := types.NewClassifiedTask(t)

		seen := make(map[string]bool)
		seenUnresolved := make(map[string]bool)
		for _, ref := range t.DependsOn {
			dep := resolve(ref)
			if dep == nil {
				_, local := normalizeRef(ref)
				if !seenUnresolved[local] {
					seenUnresolved[local] = true
					ct.UnresolvedDeps = append(ct.UnresolvedDeps, ref)
				}
				continue
			}
			if !seen[dep.ID] {
				seen[dep.ID] = true
				ct.ResolvedDeps = append(ct.ResolvedDeps, dep.ID)
			}
		}
		resolvedDepsOf[t.ID] = ct.ResolvedDeps

		ct.ParentChain = ancestorChain(t, byID)

		classified[i] = *ct
	}

	ids := make([]string, len(classified))
	for i, ct := range classified {
		ids[i] = ct.ID
	}
	inCycle, cycles := FindCycles(ids, func(id string) []string { return resolvedDepsOf[id] })

	home, _ := os.UserHomeDir()

	stats := Stats{Total: len(classified)}

	for i := range classified {
		ct := &classified[i]

		for _, depID := range ct.ResolvedDeps {
			dep := byID[depID]
			if dep == nil {
				continue
			}
			if blockedDepStatuses[dep.Status] {
				ct.BlockedBy = append(ct.BlockedBy, dep.ID)
			}
			if !terminalDepStatuses[dep.Status] {
				ct.WaitingOn = append(ct.WaitingOn, dep.ID)
			}
		}

		ct.InCycle = inCycle[ct.ID]

		ct.Classification, ct.BlockedByReason = classifyOne(ct, byID)

		ct.ResolvedWorkdir = gitutil.ResolveWorktree(ct.Worktree, ct.GitRemote, ct.GitBranch, ct.Workdir, home)

		tallyStats(&stats, ct.Classification)
	}
	stats.CycleCount = len(cycles)

	assert.Always(allClassificationsClosed(classified), "every task's classification is one of the six closed values", nil)
	assert.Always(cycleMembershipSound(classified, cycles), "in_cycle implies a size>=2 SCC or self-loop", nil)
	assert.Always(resolvedUnresolvedPartition(classified), "resolved_deps union unresolved_deps equals normalize(depends_on)", nil)

	return Result{Tasks: classified, Cycles: cycles, Stats: stats}
}

func ancestorChain(t types.Entry, byID map[string]*types.Entry) []string {
	var chain []string
	visited := map[string]bool{t.ID: true}
	cur := t.ParentID
	for cur != "" && !visited[cur] {
		chain = append(chain, cur)
		visited[cur] = true
		parent, ok := byID[cur]
		if !ok {
			break
		}
		cur = parent.ParentID
	}
	return chain
}

func classifyOne(ct *types.ClassifiedTask, byID map[string]*types.Entry) (types.Classification, types.BlockedByReason) {
	if ct.Status != types.StatusPending {
		return types.ClassNotPending, ""
	}
	if ct.InCycle {
		return types.ClassBlocked, types.ReasonCircularDependency
	}

	hasBlockingAncestor := false
	hasNonActiveAncestor := false
	for _, aID := range ct.ParentChain {
		a, ok := byID[aID]
		if !ok {
			continue
		}
		if blockingAncestorStatuses[a.Status] {
			hasBlockingAncestor = true
		}
		if !nonBlockingActiveAncestorStatuses[a.Status] {
			hasNonActiveAncestor = true
		}
	}
	if hasBlockingAncestor {
		return types.ClassBlockedByParent, ""
	}
	if len(ct.BlockedBy) > 0 {
		return types.ClassBlocked, types.ReasonDependencyBlocked
	}
	if hasNonActiveAncestor {
		return types.ClassWaitingOnParent, ""
	}
	if len(ct.WaitingOn) > 0 {
		return types.ClassWaiting, ""
	}
	return types.ClassReady, ""
}

func tallyStats(s *Stats, c types.Classification) {
	switch c {
	case types.ClassReady:
		s.Ready++
	case types.ClassWaiting:
		s.Waiting++
	case types.ClassWaitingOnParent:
		s.WaitingParent++
	case types.ClassBlocked:
		s.Blocked++
	case types.ClassBlockedByParent:
		s.BlockedParent++
	case types.ClassNotPending:
		s.NotPending++
	}
}

// Ready returns the ready-classified tasks ordered per spec.md §4.3:
// priority (high<medium<low), then created ascending, then id.
func Ready(r Result) []types.ClassifiedTask {
	return filterAndSort(r.Tasks, types.ClassReady)
}

// Waiting returns the waiting-classified tasks, same ordering as Ready.
func Waiting(r Result) []types.ClassifiedTask {
	return filterAndSort(r.Tasks, types.ClassWaiting)
}

// Blocked returns the blocked-classified tasks, same ordering as Ready.
func Blocked(r Result) []types.ClassifiedTask {
	return filterAndSort(r.Tasks, types.ClassBlocked)
}

// Next returns the top of the ready ordering, or nil if none.
func Next(r Result) *types.ClassifiedTask {
	ready := Ready(r)
	if len(ready) == 0 {
		return nil
	}
	return &ready[0]
}

func filterAndSort(tasks []types.ClassifiedTask, class types.Classification) []types.ClassifiedTask {
	var out []types.ClassifiedTask
	for _, t := range tasks {
		if t.Classification == class {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func priorityRank(p *types.Priority) int {
	if p == nil {
		return types.PriorityMedium.Rank()
	}
	return p.Rank()
}

// Package features implements the Feature Engine: aggregates
// ClassifiedTasks sharing a feature_id into Feature rollups and
// resolves inter-feature dependencies (spec.md §4.4).
package features

import (
	"sort"

	"github.com/brainforge/braind/internal/deps"
	"github.com/brainforge/braind/internal/types"
)

// Result is the Feature Engine's output. Per the Open Question
// resolution in SPEC_FULL.md §10.2, feature-dependency cycles are
// surfaced here rather than silently tolerated, mirroring
// deps.Result.Cycles.
type Result struct {
	Features []types.Feature
	Cycles   [][]string
}

// terminalFeatureStatuses are feature statuses that satisfy a
// feature_depends_on edge (resolve it out of waiting_on_features),
// the feature-graph analogue of the dependency engine's terminal
// dependency statuses.
var terminalFeatureStatuses = map[types.EntryStatus]bool{
	types.StatusCompleted: true,
}

// blockingFeatureStatuses are feature statuses that make a dependent
// feature blocked outright, the feature-graph analogue of the
// dependency engine's blocking dependency statuses.
var blockingFeatureStatuses = map[types.EntryStatus]bool{
	types.StatusBlocked: true,
}

// Aggregate groups classified tasks by feature_id (ungrouped tasks
// are not features) and computes each group's rollup status and
// inter-feature dependency graph.
func Aggregate(classified []types.ClassifiedTask) Result {
	groups := make(map[string][]types.ClassifiedTask)
	order := make([]string, 0)
	for _, t := range classified {
		if t.FeatureID == "" {
			continue
		}
		if _, ok := groups[t.FeatureID]; !ok {
			order = append(order, t.FeatureID)
		}
		groups[t.FeatureID] = append(groups[t.FeatureID], t)
	}

	featureDeps := make(map[string][]string)
	out := make([]types.Feature, 0, len(order))

	for _, fid := range order {
		members := groups[fid]
		f := types.Feature{ID: fid, TaskIDs: make([]string, 0, len(members))}

		var bestPriority *types.Priority
		depSet := make(map[string]bool)
		anyInProgress := false

		for _, m := range members {
			f.TaskIDs = append(f.TaskIDs, m.ID)
			f.TaskStats.Total++

			p := m.FeaturePriority
			if p == nil {
				p = m.Priority
			}
			if p != nil && (bestPriority == nil || p.Rank() < bestPriority.Rank()) {
				bestPriority = p
			}

			switch m.Classification {
			case types.ClassReady:
				f.TaskStats.Ready++
			case types.ClassWaiting, types.ClassWaitingOnParent:
				f.TaskStats.Waiting++
			case types.ClassBlocked, types.ClassBlockedByParent:
				f.TaskStats.Blocked++
			}
			if m.Status == types.StatusInProgress {
				f.TaskStats.InProgress++
				anyInProgress = true
			}
			if m.Status == types.StatusCompleted || m.Status == types.StatusValidated {
				f.TaskStats.Completed++
			}

			for _, dep := range m.FeatureDependsOn {
				depSet[dep] = true
			}
		}

		f.Priority = bestPriority
		for dep := range depSet {
			f.DependsOn = append(f.DependsOn, dep)
		}
		sort.Strings(f.DependsOn)
		featureDeps[fid] = f.DependsOn

		f.Status = deriveFeatureStatus(anyInProgress, f)

		out = append(out, f)
	}

	byID := make(map[string]*types.Feature, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}

	inCycle, cycles := deps.FindCycles(order, func(id string) []string { return featureDeps[id] })
	for i := range out {
		if inCycle[out[i].ID] {
			out[i].Status = types.StatusBlocked
		}
	}

	for i := range out {
		f := &out[i]
		for _, depID := range f.DependsOn {
			dep, ok := byID[depID]
			if !ok {
				continue
			}
			if blockingFeatureStatuses[dep.Status] {
				f.BlockedByFeatures = append(f.BlockedByFeatures, dep.ID)
			}
			if !terminalFeatureStatuses[dep.Status] {
				f.WaitingOnFeatures = append(f.WaitingOnFeatures, dep.ID)
			}
		}
		f.Classification = classifyFeature(inCycle[f.ID], f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return Result{Features: out, Cycles: cycles}
}

// deriveFeatureStatus implements spec.md §4.4's precedence: in_progress
// if any member in_progress; else blocked if any blocked; else
// completed if all completed/validated; else ready if any ready and
// none blocked/waiting; else pending. This is the sole source of
// truth for feature status derivation.
func deriveFeatureStatus(anyInProgress bool, f types.Feature) types.EntryStatus {
	switch {
	case anyInProgress:
		return types.StatusInProgress
	case f.TaskStats.Blocked > 0:
		return types.StatusBlocked
	case f.TaskStats.Total > 0 && f.TaskStats.Completed == f.TaskStats.Total:
		return types.StatusCompleted
	case f.TaskStats.Ready > 0 && f.TaskStats.Blocked == 0 && f.TaskStats.Waiting == 0:
		return types.StatusActive
	default:
		return types.StatusPending
	}
}

// classifyFeature derives a feature's Classification from its
// resolved feature-to-feature edges, the graph analogue of the
// dependency engine's per-task classification: participating in a
// cycle or being blocked by a dependency feature outranks merely
// waiting on one still in flight.
func classifyFeature(inCycle bool, f *types.Feature) types.Classification {
	if inCycle {
		return types.ClassBlocked
	}
	if len(f.BlockedByFeatures) > 0 {
		return types.ClassBlocked
	}
	if len(f.WaitingOnFeatures) > 0 {
		return types.ClassWaiting
	}
	return types.ClassReady
}

// Ready returns the features whose rollup status qualifies for
// scheduling priority (active == "ready" in feature terms), excluding
// any caught in a dependency cycle.
func Ready(r Result) []types.Feature {
	inCycle := make(map[string]bool)
	for _, c := range r.Cycles {
		for _, id := range c {
			inCycle[id] = true
		}
	}
	var out []types.Feature
	for _, f := range r.Features {
		if f.Status == types.StatusActive && !inCycle[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

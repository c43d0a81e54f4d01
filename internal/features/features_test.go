package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/types"
)

func classifiedTask(id, featureID string, class types.Classification, status types.EntryStatus) types.ClassifiedTask {
	ct := types.NewClassifiedTask(types.Entry{ID: id, Type: types.TypeTask, Status: status, FeatureID: featureID})
	ct.Classification = class
	return *ct
}

func TestAggregateGroupsByFeatureID(t *testing.T) {
	tasks := []types.ClassifiedTask{
		classifiedTask("a", "feat1", types.ClassReady, types.StatusPending),
		classifiedTask("b", "feat1", types.ClassWaiting, types.StatusPending),
		classifiedTask("c", "", types.ClassReady, types.StatusPending),
	}
	result := Aggregate(tasks)
	require.Len(t, result.Features, 1)
	assert.Equal(t, "feat1", result.Features[0].ID)
	assert.Equal(t, 2, result.Features[0].TaskStats.Total)
}

func TestAggregateStatusBlockedWins(t *testing.T) {
	tasks := []types.ClassifiedTask{
		classifiedTask("a", "feat1", types.ClassReady, types.StatusPending),
		classifiedTask("b", "feat1", types.ClassBlocked, types.StatusPending),
	}
	result := Aggregate(tasks)
	assert.Equal(t, types.StatusBlocked, result.Features[0].Status)
}

func TestAggregateStatusCompletedWhenAllDone(t *testing.T) {
	tasks := []types.ClassifiedTask{
		classifiedTask("a", "feat1", types.ClassNotPending, types.StatusCompleted),
		classifiedTask("b", "feat1", types.ClassNotPending, types.StatusValidated),
	}
	result := Aggregate(tasks)
	assert.Equal(t, types.StatusCompleted, result.Features[0].Status)
}

func TestAggregateFeatureCycleDetected(t *testing.T) {
	a := classifiedTask("a", "feat-a", types.ClassReady, types.StatusPending)
	a.FeatureDependsOn = []string{"feat-b"}
	b := classifiedTask("b", "feat-b", types.ClassReady, types.StatusPending)
	b.FeatureDependsOn = []string{"feat-a"}

	result := Aggregate([]types.ClassifiedTask{a, b})
	require.Len(t, result.Cycles, 1)

	for _, f := range result.Features {
		assert.Equal(t, types.StatusBlocked, f.Status)
		assert.Equal(t, types.ClassBlocked, f.Classification)
	}
}

func TestAggregateResolvesBlockedAndWaitingOnFeatures(t *testing.T) {
	upstreamBlocked := classifiedTask("u1", "feat-upstream-blocked", types.ClassBlocked, types.StatusPending)
	upstreamWaiting := classifiedTask("u2", "feat-upstream-waiting", types.ClassWaiting, types.StatusPending)

	dependent := classifiedTask("d1", "feat-dependent", types.ClassReady, types.StatusPending)
	dependent.FeatureDependsOn = []string{"feat-upstream-blocked", "feat-upstream-waiting"}

	result := Aggregate([]types.ClassifiedTask{upstreamBlocked, upstreamWaiting, dependent})
	require.Empty(t, result.Cycles)

	var dep types.Feature
	for _, f := range result.Features {
		if f.ID == "feat-dependent" {
			dep = f
		}
	}
	assert.Equal(t, []string{"feat-upstream-blocked"}, dep.BlockedByFeatures)
	assert.ElementsMatch(t, []string{"feat-upstream-blocked", "feat-upstream-waiting"}, dep.WaitingOnFeatures)
	assert.Equal(t, types.ClassBlocked, dep.Classification)
}

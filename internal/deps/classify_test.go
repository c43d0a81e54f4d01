package deps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/types"
)

func task(id, title string, status types.EntryStatus, created time.Time, dependsOn []string) types.Entry {
	return types.Entry{
		ID:        id,
		Path:      "global/task/" + id + "-" + title + ".md",
		Type:      types.TypeTask,
		Status:    status,
		Title:     title,
		Created:   created,
		DependsOn: dependsOn,
	}
}

func TestClassifyDiamond(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []types.Entry{
		task("aaaaaaaa", "a", types.StatusCompleted, t0, nil),
		task("bbbbbbbb", "b", types.StatusPending, t0.Add(time.Minute), []string{"aaaaaaaa"}),
		task("cccccccc", "c", types.StatusPending, t0.Add(2*time.Minute), []string{"aaaaaaaa"}),
		task("dddddddd", "d", types.StatusPending, t0.Add(3*time.Minute), []string{"bbbbbbbb", "cccccccc"}),
	}

	result := Classify(tasks)

	byID := indexByID(result.Tasks)
	assert.Equal(t, types.ClassReady, byID["bbbbbbbb"].Classification)
	assert.Equal(t, types.ClassReady, byID["cccccccc"].Classification)
	assert.Equal(t, types.ClassWaiting, byID["dddddddd"].Classification)
	assert.ElementsMatch(t, []string{"bbbbbbbb", "cccccccc"}, byID["dddddddd"].WaitingOn)

	ready := Ready(result)
	require.Len(t, ready, 2)
	assert.Equal(t, "bbbbbbbb", ready[0].ID)
	assert.Equal(t, "cccccccc", ready[1].ID)
}

func TestClassifyCycle(t *testing.T) {
	t0 := time.Now()
	tasks := []types.Entry{
		task("xxxxxxxx", "x", types.StatusPending, t0, []string{"yyyyyyyy"}),
		task("yyyyyyyy", "y", types.StatusPending, t0, []string{"xxxxxxxx"}),
	}

	result := Classify(tasks)
	byID := indexByID(result.Tasks)

	assert.Equal(t, types.ClassBlocked, byID["xxxxxxxx"].Classification)
	assert.Equal(t, types.ReasonCircularDependency, byID["xxxxxxxx"].BlockedByReason)
	assert.True(t, byID["xxxxxxxx"].InCycle)
	assert.True(t, byID["yyyyyyyy"].InCycle)

	require.Len(t, result.Cycles, 1)
	assert.ElementsMatch(t, []string{"xxxxxxxx", "yyyyyyyy"}, result.Cycles[0])
}

func TestClassifyParentBlocked(t *testing.T) {
	t0 := time.Now()
	parent := task("pppppppp", "parent", types.StatusBlocked, t0, nil)
	child := task("cccccccc", "child", types.StatusPending, t0, nil)
	child.ParentID = "pppppppp"

	result := Classify([]types.Entry{parent, child})
	byID := indexByID(result.Tasks)
	assert.Equal(t, types.ClassBlockedByParent, byID["cccccccc"].Classification)

	parent.Status = types.StatusActive
	result = Classify([]types.Entry{parent, child})
	byID = indexByID(result.Tasks)
	assert.Equal(t, types.ClassReady, byID["cccccccc"].Classification)
}

func TestClassifyUnresolvedRefsNeverBlockOrCycle(t *testing.T) {
	t0 := time.Now()
	tasks := []types.Entry{
		task("aaaaaaaa", "a", types.StatusPending, t0, []string{"ghostghos"}),
	}
	result := Classify(tasks)
	byID := indexByID(result.Tasks)
	assert.Equal(t, types.ClassReady, byID["aaaaaaaa"].Classification)
	assert.False(t, byID["aaaaaaaa"].InCycle)
	assert.Contains(t, byID["aaaaaaaa"].UnresolvedDeps, "ghostghos")
}

func TestClassifyNotPending(t *testing.T) {
	t0 := time.Now()
	tasks := []types.Entry{
		task("aaaaaaaa", "a", types.StatusInProgress, t0, nil),
	}
	result := Classify(tasks)
	assert.Equal(t, types.ClassNotPending, result.Tasks[0].Classification)
}

func indexByID(tasks []types.ClassifiedTask) map[string]*types.ClassifiedTask {
	m := make(map[string]*types.ClassifiedTask, len(tasks))
	for i := range tasks {
		m[tasks[i].ID] = &tasks[i]
	}
	return m
}

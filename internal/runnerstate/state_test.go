package runnerstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/types"
)

func TestSaveAndLoadStateRoundTrips(t *testing.T) {
	m := New(t.TempDir())
	state := types.NewRunnerState("demo")
	state.Tasks["t1"] = &types.RunningTask{TaskID: "t1", PID: 123, Status: types.ProcessRunning}

	require.NoError(t, m.SaveState("demo", state))

	loaded, err := m.LoadState("demo")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "demo", loaded.ProjectID)
	assert.Equal(t, 123, loaded.Tasks["t1"].PID)
}

func TestLoadStateMissingReturnsNilNoError(t *testing.T) {
	m := New(t.TempDir())
	loaded, err := m.LoadState("nothing-here")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadStateCorruptReturnsNilNoError(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runner-demo.json"), []byte("{not json"), 0o644))

	loaded, err := m.LoadState("demo")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWriteAndReadPID(t *testing.T) {
	m := New(t.TempDir())
	require.NoError(t, m.WritePID("demo", os.Getpid()))
	assert.Equal(t, os.Getpid(), m.ReadPID("demo"))
	assert.True(t, m.IsPrevInstanceLive("demo"))
}

func TestRemovePIDIsIdempotent(t *testing.T) {
	m := New(t.TempDir())
	require.NoError(t, m.WritePID("demo", os.Getpid()))
	require.NoError(t, m.RemovePID("demo"))
	require.NoError(t, m.RemovePID("demo"))
	assert.Equal(t, 0, m.ReadPID("demo"))
}

func TestIsPrevInstanceLiveFalseForDeadPID(t *testing.T) {
	m := New(t.TempDir())
	// PID 999999 is extremely unlikely to be a live process.
	require.NoError(t, m.WritePID("demo", 999999))
	assert.False(t, m.IsPrevInstanceLive("demo"))
}

func TestFindAllRunnerStatesListsProjects(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	require.NoError(t, m.SaveState("alpha", types.NewRunnerState("alpha")))
	require.NoError(t, m.SaveState("beta", types.NewRunnerState("beta")))

	projects, err := FindAllRunnerStates(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, projects)
}

func TestCleanupStaleStatesRemovesDeadProjectsOnly(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)
	require.NoError(t, m.SaveState("alive", types.NewRunnerState("alive")))
	require.NoError(t, m.WritePID("alive", os.Getpid()))
	require.NoError(t, m.SaveState("dead", types.NewRunnerState("dead")))
	require.NoError(t, m.WritePID("dead", 999999))

	cleaned, err := CleanupStaleStates(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"dead"}, cleaned)

	_, err = os.Stat(m.statePath("dead"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(m.statePath("alive"))
	assert.NoError(t, err)
}

func TestSaveAndLoadRunningTasks(t *testing.T) {
	m := New(t.TempDir())
	tasks := []types.RunningTask{{TaskID: "t1", PID: 1}, {TaskID: "t2", PID: 2}}
	require.NoError(t, m.SaveRunning("demo", tasks))

	loaded, err := m.LoadRunning("demo")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "t1", loaded[0].TaskID)
}

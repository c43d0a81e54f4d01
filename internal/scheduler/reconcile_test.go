package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/runnerstate"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

func TestRecoverFromPriorInstanceRefusesWhenPriorLiveByPID(t *testing.T) {
	dir := t.TempDir()
	state := runnerstate.New(dir)
	require.NoError(t, state.WritePID("proj", currentPID()))

	api := newFakeAPI()
	launcher := &fakeLauncher{}
	loop := New(Options{Project: "proj", RunnerID: "r1", Home: t.TempDir()}, api, supervisor.New(launcher), state, testProfile(), nil)

	err := loop.recoverFromPriorInstance(context.Background())
	assert.Error(t, err)
}

func TestReconcileResumeReclaimsInProgressTask(t *testing.T) {
	api := newFakeAPI()
	api.inProgress = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Workdir: t.TempDir(), Status: types.StatusInProgress}}}

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "r1", Resume: true, Home: t.TempDir()}, api, sup, state, testProfile(), nil)
	runnerState := loop.ensureRunnerState()

	loop.reconcileResume(context.Background(), runnerState)

	assert.Contains(t, launcher.launched, "task1")
	assert.Contains(t, runnerState.Tasks, "task1")
}

func TestReconcileResumeLeavesForeignClaimAlone(t *testing.T) {
	api := newFakeAPI()
	api.inProgress = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Workdir: t.TempDir(), Status: types.StatusInProgress}}}
	api.claims["task1"] = "other-runner"

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "r1", Resume: true, Home: t.TempDir()}, api, sup, state, testProfile(), nil)
	runnerState := loop.ensureRunnerState()

	loop.reconcileResume(context.Background(), runnerState)

	assert.Empty(t, launcher.launched)
	assert.NotContains(t, runnerState.Tasks, "task1")
}

func TestReconcileOneTaskRevertsToPendingWhenResumeDisabled(t *testing.T) {
	api := newFakeAPI()
	api.entries["task1"] = &types.Entry{ID: "task1", Status: types.StatusInProgress}

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "r1", Resume: false, Home: t.TempDir()}, api, sup, state, testProfile(), nil)
	runnerState := loop.ensureRunnerState()

	loop.reconcileOneTask(context.Background(), "task1", runnerState)

	assert.Equal(t, types.StatusPending, api.entries["task1"].Status)
	assert.Empty(t, launcher.launched)
}

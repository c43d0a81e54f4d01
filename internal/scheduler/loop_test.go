package scheduler

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/config"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/runnerstate"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

// fakeAPI is an in-memory stand-in for *apiclient.Client so the loop
// can be driven deterministically without a real braind server.
type fakeAPI struct {
	mu sync.Mutex

	healthy    bool
	ready      []types.ClassifiedTask
	inProgress []types.ClassifiedTask
	entries    map[string]*types.Entry
	claims     map[string]string // taskID -> runnerID

	claimCalls   []string
	releaseCalls []string
	updates      []apiclient.UpdateEntryRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{healthy: true, entries: map[string]*types.Entry{}, claims: map[string]string{}}
}

func (f *fakeAPI) Health(ctx context.Context) (*apiclient.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &apiclient.HealthStatus{Status: "healthy", BackendAvailable: f.healthy, DBAvailable: true}, nil
}

func (f *fakeAPI) ListReady(ctx context.Context, projectID string) ([]types.ClassifiedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ClassifiedTask, len(f.ready))
	copy(out, f.ready)
	return out, nil
}

func (f *fakeAPI) InProgress(ctx context.Context, projectID string) ([]types.ClassifiedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inProgress, nil
}

func (f *fakeAPI) Claim(ctx context.Context, projectID, taskID, runnerID string) (*apiclient.ClaimResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimCalls = append(f.claimCalls, taskID)
	if holder, ok := f.claims[taskID]; ok && holder != runnerID {
		return &apiclient.ClaimResponse{OK: false, ClaimedBy: holder}, nil
	}
	f.claims[taskID] = runnerID
	return &apiclient.ClaimResponse{OK: true}, nil
}

func (f *fakeAPI) Release(ctx context.Context, projectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls = append(f.releaseCalls, taskID)
	delete(f.claims, taskID)
	return nil
}

func (f *fakeAPI) UpdateEntry(ctx context.Context, idOrPath string, req apiclient.UpdateEntryRequest) (*types.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	e := f.entries[idOrPath]
	if e == nil {
		e = &types.Entry{ID: idOrPath}
		f.entries[idOrPath] = e
	}
	if req.Status != nil {
		e.Status = types.EntryStatus(*req.Status)
	}
	return e, nil
}

func (f *fakeAPI) GetEntry(ctx context.Context, idOrPath string) (*types.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[idOrPath]
	if e == nil {
		return nil, nil
	}
	return e, nil
}

// fakeHandle is a supervisor.Handle that exits immediately with a
// configurable code, so spawn/reap cycles run without a real process.
type fakeHandle struct {
	pid      int
	exitCode int
	waitCh   chan struct{}
}

func newFakeHandle(pid, exitCode int) *fakeHandle {
	h := &fakeHandle{pid: pid, exitCode: exitCode, waitCh: make(chan struct{})}
	close(h.waitCh)
	return h
}

func (h *fakeHandle) PID() int { return h.pid }
func (h *fakeHandle) Wait() (supervisor.ExitResult, error) {
	<-h.waitCh
	return supervisor.ExitResult{Code: h.exitCode}, nil
}
func (h *fakeHandle) Signal(os.Signal) error { return nil }

type fakeLauncher struct {
	mu        sync.Mutex
	nextPID   int
	exitCode  int
	launched  []string
}

func (l *fakeLauncher) Launch(ctx context.Context, spec supervisor.LaunchSpec) (supervisor.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextPID++
	l.launched = append(l.launched, spec.TaskID)
	return newFakeHandle(l.nextPID, l.exitCode), nil
}

func testProfile() config.RunnerProfile {
	p := config.DefaultRunnerProfile()
	p.Launch.MaxParallel = 2
	p.Poll.IntervalMS = 5
	p.Poll.HealthCacheSec = 0
	return p
}

func TestTickSpawnsReadyTaskAndMarksInProgress(t *testing.T) {
	api := newFakeAPI()
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Title: "Do thing", Workdir: t.TempDir()}}}

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir()}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))

	assert.Contains(t, launcher.launched, "task1")
	assert.Contains(t, api.claimCalls, "task1")
	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].Status)
	assert.Equal(t, string(types.StatusInProgress), *api.updates[0].Status)
}

func TestTickReapsCompletedTaskAndReleasesClaim(t *testing.T) {
	api := newFakeAPI()
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Title: "Do thing", Workdir: t.TempDir()}}}

	launcher := &fakeLauncher{exitCode: 0}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir()}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))
	// Give the supervisor's watch goroutine a moment to post the exit event.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sup.Count() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, loop.tick(context.Background()))

	assert.Contains(t, api.releaseCalls, "task1")
	found := false
	for _, u := range api.updates {
		if u.Status != nil && *u.Status == string(types.StatusCompleted) {
			found = true
		}
	}
	assert.True(t, found, "expected a completed status update")
}

func TestTickReleasesClaimOnNonZeroExit(t *testing.T) {
	api := newFakeAPI()
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Title: "Do thing", Workdir: t.TempDir()}}}

	launcher := &fakeLauncher{exitCode: 1}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir()}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sup.Count() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, loop.tick(context.Background()))

	found := false
	for _, u := range api.updates {
		if u.Status != nil && *u.Status == string(types.StatusBlocked) {
			found = true
		}
	}
	assert.True(t, found, "expected a blocked status update on non-zero exit")
}

func TestTickSkipsUnhealthyBackend(t *testing.T) {
	api := newFakeAPI()
	api.healthy = false
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Workdir: t.TempDir()}}}

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir()}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))
	assert.Empty(t, launcher.launched)
}

func TestTickDropsConflictingClaimAndTriesNothingElse(t *testing.T) {
	api := newFakeAPI()
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Workdir: t.TempDir()}}}
	api.claims["task1"] = "other-runner"

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir()}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))
	assert.Empty(t, launcher.launched)
}

func TestDryRunNeverClaims(t *testing.T) {
	api := newFakeAPI()
	api.ready = []types.ClassifiedTask{{Entry: types.Entry{ID: "task1", Workdir: t.TempDir()}}}

	launcher := &fakeLauncher{}
	sup := supervisor.New(launcher)
	state := runnerstate.New(t.TempDir())

	loop := New(Options{Project: "proj", RunnerID: "runner1", Home: t.TempDir(), DryRun: true}, api, sup, state, testProfile(), logging.NewNop())
	loop.firstIteration = false

	require.NoError(t, loop.tick(context.Background()))
	assert.Empty(t, launcher.launched)
	assert.Empty(t, api.claimCalls)
}

func TestRenderPromptIncludesOriginalRequest(t *testing.T) {
	task := &types.ClassifiedTask{Entry: types.Entry{Title: "Fix bug", Body: "Do the thing.", UserOriginalRequest: "please fix it"}}
	prompt := renderPrompt(task)
	assert.Contains(t, prompt, "Fix bug")
	assert.Contains(t, prompt, "Do the thing.")
	assert.Contains(t, prompt, "please fix it")
}

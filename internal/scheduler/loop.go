// Package scheduler is brain-runner's Scheduler Loop: a cooperative,
// single-threaded-per-project poll/claim/spawn/reap cycle (spec.md
// §4.6/§4.7/§5), grounded on the teacher's supervisor poll-and-dispatch
// shape (internal/supervisor/scanner.go + internal/supervisor/
// dispatcher.go) and the external-source claim/complete cycle of
// internal/tasks/sources.go, generalized from a single goroutine to one
// Loop per project so "all" mode can fan multiple out under an
// errgroup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/config"
	"github.com/brainforge/braind/internal/gitutil"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/runnerstate"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

// apiClient is the subset of *apiclient.Client the loop depends on, so
// tests can inject a fake rather than talk to a real braind over HTTP.
type apiClient interface {
	Health(ctx context.Context) (*apiclient.HealthStatus, error)
	ListReady(ctx context.Context, projectID string) ([]types.ClassifiedTask, error)
	InProgress(ctx context.Context, projectID string) ([]types.ClassifiedTask, error)
	Claim(ctx context.Context, projectID, taskID, runnerID string) (*apiclient.ClaimResponse, error)
	Release(ctx context.Context, projectID, taskID string) error
	UpdateEntry(ctx context.Context, idOrPath string, req apiclient.UpdateEntryRequest) (*types.Entry, error)
	GetEntry(ctx context.Context, idOrPath string) (*types.Entry, error)
}

// Options configures a single project's Loop.
type Options struct {
	Project  string
	RunnerID string
	Resume   bool
	DryRun   bool
	Home     string // $HOME, for gitutil.ResolveWorktree
}

// Loop runs one project's Scheduler Loop. It suspends at exactly three
// points per spec.md §5: the health check, the ready-list fetch, and
// the inter-tick sleep — everywhere else it is pure computation or a
// non-blocking channel drain.
type Loop struct {
	opts    Options
	api     apiClient
	sup     *supervisor.Supervisor
	state   *runnerstate.Manager
	profile config.RunnerProfile
	log     *logging.Logger

	runner *types.RunnerState

	healthLimiter *rate.Limiter
	healthy       bool

	firstIteration bool
}

// New builds a Loop. api is usually a *apiclient.Client but accepts
// anything satisfying apiClient so tests can inject a fake; sup must
// already be wired to a ProcessLauncher; state is shared across every
// project's Loop in "all" mode (it's keyed by project internally).
func New(opts Options, api apiClient, sup *supervisor.Supervisor, state *runnerstate.Manager, profile config.RunnerProfile, log *logging.Logger) *Loop {
	if log == nil {
		log = logging.NewNop()
	}
	ttl := time.Duration(profile.Poll.HealthCacheSec) * time.Second
	if ttl <= 0 {
		ttl = time.Second
	}
	return &Loop{
		opts:            opts,
		api:             api,
		sup:             sup,
		state:           state,
		profile:         profile,
		log:             log.With(zap.String("project", opts.Project)),
		firstIteration:  true,
		healthLimiter:   rate.NewLimiter(rate.Every(ttl), 1),
	}
}

func (l *Loop) pollInterval() time.Duration {
	return time.Duration(l.profile.Poll.IntervalMS) * time.Millisecond
}

// Run executes the loop until ctx is cancelled, performing the
// graceful-shutdown sequence described in spec.md §4.6 before
// returning. It implements the startup crash-recovery reconciliation
// (spec.md §4.6 "Crash recovery") before entering the poll cycle.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.recoverFromPriorInstance(ctx); err != nil {
		return fmt.Errorf("scheduler: crash recovery for project %q: %w", l.opts.Project, err)
	}
	if err := l.state.WritePID(l.opts.Project, currentPID()); err != nil {
		l.log.Warn("failed to write pid file", zap.Error(err))
	}
	defer l.state.RemovePID(l.opts.Project)

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return nil
		default:
		}

		tickStart := time.Now()
		if err := l.tick(ctx); err != nil {
			if ctx.Err() != nil {
				l.shutdown()
				return nil
			}
			l.log.Error("tick failed", zap.Error(err))
		}

		l.sleepUntil(ctx, tickStart.Add(l.pollInterval()))
		if ctx.Err() != nil {
			l.shutdown()
			return nil
		}
	}
}

// sleepUntil blocks until deadline or ctx cancellation, whichever comes
// first, implementing the "absolute, not additive" pacing spec.md §4.6
// step 6 requires: a slow tick eats into the next interval rather than
// stacking delay on top of it.
func (l *Loop) sleepUntil(ctx context.Context, deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// shutdown implements spec.md §4.6's cancellation sequence: stop
// accepting new tasks (the caller already has, by virtue of ctx being
// done), signal every child, give them the grace period, then mark
// their tasks back to pending — not blocked, since the interruption is
// operator-induced rather than a task failure.
func (l *Loop) shutdown() {
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	taskIDs := l.sup.CancelAll()
	deadline := time.Now().Add(gracePeriod(l.profile))
	for _, taskID := range taskIDs {
		if err := l.api.Release(shutCtx, l.opts.Project, taskID); err != nil {
			l.log.Warn("release claim on shutdown failed", zap.String("task", taskID), zap.Error(err))
		}
		pending := string(types.StatusPending)
		if _, err := l.api.UpdateEntry(shutCtx, taskID, apiclient.UpdateEntryRequest{Status: &pending}); err != nil {
			l.log.Warn("revert task to pending on shutdown failed", zap.String("task", taskID), zap.Error(err))
		}
	}
	for time.Now().Before(deadline) && l.sup.Count() > 0 {
		time.Sleep(100 * time.Millisecond)
	}

	if l.runner != nil {
		_ = l.state.SaveState(l.opts.Project, l.runner)
	}
	l.log.Info("scheduler loop stopped")
}

func gracePeriod(p config.RunnerProfile) time.Duration {
	if p.Launch.GracePeriodSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.Launch.GracePeriodSec) * time.Second
}

func (l *Loop) ensureRunnerState() *types.RunnerState {
	if l.runner == nil {
		loaded, err := l.state.LoadState(l.opts.Project)
		if err != nil || loaded == nil {
			loaded = types.NewRunnerState(l.opts.Project)
		}
		l.runner = loaded
	}
	l.runner.EnsureMaps()
	return l.runner
}

func (l *Loop) resolveWorkdir(task *types.ClassifiedTask) string {
	return gitutil.ResolveWorktree(task.Worktree, task.GitRemote, task.GitBranch, task.Workdir, l.opts.Home)
}

package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/config"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/runnerstate"
	"github.com/brainforge/braind/internal/supervisor"
)

// projectLister is the minimal surface RunAll needs to discover every
// project with at least one entry, satisfied by *apiclient.Client via
// ListProjects (GET /tasks).
type projectLister interface {
	ListProjects(ctx context.Context) ([]string, error)
}

// RunAll runs one independent Loop per project returned by lister,
// sharing only the API client and state directory, per spec.md §5:
// "one Scheduler Loop per project, independent". Each project gets its
// own ProcessLauncher-backed Supervisor so a slow child in one project
// can never starve another's maxParallel budget.
func RunAll(ctx context.Context, lister projectLister, api *apiclient.Client, launcher supervisor.ProcessLauncher, state *runnerstate.Manager, profile config.RunnerProfile, runnerID, home string, log *logging.Logger, dryRun bool) error {
	projects, err := lister.ListProjects(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, project := range projects {
		project := project
		g.Go(func() error {
			loop := New(Options{
				Project:  project,
				RunnerID: runnerID,
				Resume:   profile.Poll.Resume,
				DryRun:   dryRun,
				Home:     home,
			}, api, supervisor.New(launcher), state, profile, log)
			if err := loop.Run(gctx); err != nil {
				var already errAlreadyRunning
				if errors.As(err, &already) {
					log.Warn("skipping project with a live runner already attached", zap.String("project", project))
					return nil
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

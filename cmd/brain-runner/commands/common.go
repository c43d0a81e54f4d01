package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/config"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/runnerstate"
)

// stateDir derives the runner's persistence directory from the
// profile's log directory, falling back to the server's own default
// layout so a runner and its braind can share one brain/.state tree
// without either side needing an extra flag.
func stateDir(profile *config.RunnerProfile) string {
	if profile.Launch.LogDir != "" {
		return filepath.Dir(profile.Launch.LogDir)
	}
	return "./brain/.state"
}

// newLogger switches to console encoding only when brain-runner is
// attached to a real terminal, so piping its output into a log
// collector still gets structured JSON.
func newLogger() (*logging.Logger, error) {
	console := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	log, err := logging.New(logging.Config{Verbose: verbose, Console: console})
	if err != nil {
		return nil, operatorError("building logger: %w", err)
	}
	return log, nil
}

func newStateManager(profile *config.RunnerProfile) (*runnerstate.Manager, error) {
	dir := stateDir(profile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, operatorError("creating state dir %s: %w", dir, err)
	}
	return runnerstate.New(dir), nil
}

func newAPIClient(profile *config.RunnerProfile) *apiclient.Client {
	return apiclient.New(profile.Server.BaseURL)
}

// runnerID derives a stable-for-the-process identifier for claims and
// process bookkeeping: hostname plus a short random suffix, so logs
// from two runners on the same box stay distinguishable.
func runnerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "runner"
	}
	return host + "-" + uuid.NewString()[:8]
}

// staticLister satisfies scheduler's projectLister with a single,
// fixed project, used when --project pins brain-runner to one project
// instead of discovering every project the server knows about.
type staticLister struct{ project string }

func (s staticLister) ListProjects(_ context.Context) ([]string, error) {
	return []string{s.project}, nil
}

// Package commands implements brain-runner's cobra CLI: start, stop,
// status, run-one, list, ready, waiting, blocked, and logs, grounded on
// jra3-linear-fuse's root.go + one-file-per-subcommand layout.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brainforge/braind/internal/config"
)

// exitCoder lets a subcommand request a specific process exit code
// (spec.md §6: 0 success, 1 operator error, 2 invalid arguments)
// without main having to inspect error strings.
type exitCoder interface {
	ExitCode() int
}

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }
func (e cliError) ExitCode() int { return e.code }
func (e cliError) Unwrap() error { return e.err }

func operatorError(format string, args ...any) error {
	return cliError{code: 1, err: fmt.Errorf(format, args...)}
}

func usageError(format string, args ...any) error {
	return cliError{code: 2, err: fmt.Errorf(format, args...)}
}

// ExitCodeFor maps an error returned by Execute to a process exit
// code: 0 is never reached here since main only calls this on error.
func ExitCodeFor(err error) int {
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return 1
}

var (
	profilePath string
	project     string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "brain-runner",
	Short:         "Poll braind for ready tasks and launch agent processes to work them",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "runner profile TOML file (defaults layered if absent)")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "project to operate on (defaults to the profile's server.project)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
}

// Execute runs the CLI; main translates a non-nil error into an exit
// code via ExitCodeFor.
func Execute() error {
	return rootCmd.Execute()
}

// loadProfile reads the runner profile and resolves --project over
// whatever the profile file set, matching config's own env-override
// precedence (flag beats file, same as env beats file).
func loadProfile() (*config.RunnerProfile, error) {
	profile, err := config.LoadRunnerProfile(profilePath)
	if err != nil {
		return nil, operatorError("loading runner profile: %w", err)
	}
	if project != "" {
		profile.Server.Project = project
	}
	return profile, nil
}

func activeProject(profile *config.RunnerProfile) (string, error) {
	if profile.Server.Project != "" {
		return profile.Server.Project, nil
	}
	return "", usageError("no project given: pass --project or set server.project in the profile")
}

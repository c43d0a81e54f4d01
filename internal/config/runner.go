package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// RunnerProfile is brain-runner's flat operational config: which
// braind server to poll, how to launch agent processes, and
// concurrency/poll-interval knobs (spec.md §4.6/§4.7).
type RunnerProfile struct {
	Server ServerTarget `toml:"server"`
	Launch LaunchConfig `toml:"launch"`
	Poll   PollConfig   `toml:"poll"`
}

// ServerTarget is where brain-runner finds braind's HTTP API.
type ServerTarget struct {
	BaseURL string `toml:"base_url"`
	Project string `toml:"project"`
}

// LaunchConfig configures how brain-runner spawns an agent process
// for a claimed task.
type LaunchConfig struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	Env            []string `toml:"env"`
	MaxParallel    int      `toml:"max_parallel"`
	LogDir         string   `toml:"log_dir"`
	GracePeriodSec int      `toml:"grace_period_seconds"`
}

// PollConfig tunes the scheduler loop's polling cadence.
type PollConfig struct {
	IntervalMS      int  `toml:"interval_ms"`
	HealthCacheSec  int  `toml:"health_cache_seconds"`
	Resume          bool `toml:"resume"`
}

// DefaultRunnerProfile returns the defaults a TOML file layers over.
func DefaultRunnerProfile() RunnerProfile {
	return RunnerProfile{
		Server: ServerTarget{BaseURL: "http://localhost:8177"},
		Launch: LaunchConfig{
			Command:        "claude",
			MaxParallel:    3,
			LogDir:         "./brain/.state/logs",
			GracePeriodSec: 5,
		},
		Poll: PollConfig{
			IntervalMS:     2000,
			HealthCacheSec: 10,
			Resume:         true,
		},
	}
}

// LoadRunnerProfile reads path (if present) as TOML on top of
// DefaultRunnerProfile, then layers environment variable overrides
// (always win), matching emergent-company-specmcp's precedence rule.
func LoadRunnerProfile(path string) (*RunnerProfile, error) {
	cfg := DefaultRunnerProfile()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse runner profile %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat runner profile %s: %w", path, err)
		}
	}

	applyRunnerEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyRunnerEnv(cfg *RunnerProfile) {
	if v := os.Getenv("BRAIN_RUNNER_SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("BRAIN_RUNNER_PROJECT"); v != "" {
		cfg.Server.Project = v
	}
	if v := os.Getenv("BRAIN_RUNNER_COMMAND"); v != "" {
		cfg.Launch.Command = v
	}
}

// Validate checks the profile is internally consistent.
func (c *RunnerProfile) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.base_url must not be empty")
	}
	if c.Launch.Command == "" {
		return fmt.Errorf("config: launch.command must not be empty")
	}
	if c.Launch.MaxParallel <= 0 {
		return fmt.Errorf("config: launch.max_parallel must be positive")
	}
	if c.Poll.IntervalMS <= 0 {
		return fmt.Errorf("config: poll.interval_ms must be positive")
	}
	return nil
}

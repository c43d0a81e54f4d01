// Package config loads braind's server configuration (YAML, matching
// the teacher's LoadTeamsConfig shape) and brain-runner's agent-launch
// profile (flat TOML, matching emergent-company-specmcp's config.go
// pattern) — per SPEC_FULL.md's ambient-stack section: "YAML for rich
// nested config, TOML for flat operational config".
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is braind's on-disk configuration.
type ServerConfig struct {
	NotebookRoot string        `yaml:"notebook_root"`
	StateDir     string        `yaml:"state_dir"`
	MetaDBPath   string        `yaml:"meta_db_path"`
	HTTPAddr     string        `yaml:"http_addr"`
	PollCacheTTL time.Duration `yaml:"poll_cache_ttl"`
	RichBackend  RichBackendConfig `yaml:"rich_backend"`
	Logging      LoggingConfig     `yaml:"logging"`
}

// RichBackendConfig names the external notebook indexer binary, if any.
type RichBackendConfig struct {
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig controls braind's log sinks.
type LoggingConfig struct {
	Verbose bool   `yaml:"verbose"`
	Console bool   `yaml:"console"`
	LogFile string `yaml:"log_file"`
	RingCap int    `yaml:"ring_capacity"`
}

// DefaultServerConfig returns the zero-config defaults every field
// falls back to when the YAML file omits them.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		NotebookRoot: "./brain",
		StateDir:     "./brain/.state",
		MetaDBPath:   "./brain/.state/meta.db",
		HTTPAddr:     ":8177",
		PollCacheTTL: 2 * time.Second,
		RichBackend: RichBackendConfig{
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Console: true,
			RingCap: 500,
		},
	}
}

// LoadServerConfig reads path (if non-empty and present) as YAML on
// top of DefaultServerConfig. A missing path is not an error — the
// caller runs on defaults, same as the teacher's optional file load.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return &cfg, nil
			}
			return nil, fmt.Errorf("config: read server config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse server config: %w", err)
		}
	}

	applyServerEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyServerEnv(cfg *ServerConfig) {
	if v := os.Getenv("BRAIND_NOTEBOOK_ROOT"); v != "" {
		cfg.NotebookRoot = v
	}
	if v := os.Getenv("BRAIND_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("BRAIND_RICH_BACKEND_BINARY"); v != "" {
		cfg.RichBackend.Binary = v
	}
}

// Validate checks the config is usable: the notebook root, state dir
// and HTTP address must be non-empty. It does not check that the
// notebook root and state dir differ.
func (c *ServerConfig) Validate() error {
	if c.NotebookRoot == "" {
		return fmt.Errorf("config: notebook_root must not be empty")
	}
	if c.StateDir == "" {
		return fmt.Errorf("config: state_dir must not be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("config: http_addr must not be empty")
	}
	return nil
}

// ResolvePaths makes NotebookRoot/StateDir/MetaDBPath absolute
// relative to baseDir, called once at startup after flag overrides.
func (c *ServerConfig) ResolvePaths(baseDir string) {
	c.NotebookRoot = resolveRel(baseDir, c.NotebookRoot)
	c.StateDir = resolveRel(baseDir, c.StateDir)
	c.MetaDBPath = resolveRel(baseDir, c.MetaDBPath)
}

func resolveRel(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./brain", cfg.NotebookRoot)
	assert.Equal(t, ":8177", cfg.HTTPAddr)
}

func TestLoadServerConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "braind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notebook_root: /srv/brain\nhttp_addr: :9000\n"), 0o644))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/brain", cfg.NotebookRoot)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestLoadServerConfigRejectsEmptyAddr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "braind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \"\"\n"), 0o644))

	_, err := LoadServerConfig(path)
	assert.Error(t, err)
}

func TestLoadRunnerProfileMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadRunnerProfile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Launch.Command)
	assert.Equal(t, 3, cfg.Launch.MaxParallel)
}

func TestLoadRunnerProfileParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.toml")
	contents := `
[server]
base_url = "http://localhost:9177"
project = "demo"

[launch]
command = "my-agent"
max_parallel = 5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadRunnerProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9177", cfg.Server.BaseURL)
	assert.Equal(t, "demo", cfg.Server.Project)
	assert.Equal(t, "my-agent", cfg.Launch.Command)
	assert.Equal(t, 5, cfg.Launch.MaxParallel)
}

func TestLoadRunnerProfileRejectsZeroMaxParallel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte("[launch]\nmax_parallel = 0\n"), 0o644))

	_, err := LoadRunnerProfile(path)
	assert.Error(t, err)
}

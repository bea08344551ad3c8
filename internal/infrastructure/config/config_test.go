package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sequential", cfg.Method)
	assert.Equal(t, 10, cfg.MaxParallelOps)
	assert.True(t, cfg.AnnotateErrors)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EXEC_METHOD", "parallel")
	t.Setenv("MAX_PARALLEL_OPS", "4")
	t.Setenv("OP_TIMEOUT", "250ms")
	t.Setenv("ANNOTATE_ERRORS", "false")

	cfg := Load()
	assert.Equal(t, "parallel", cfg.Method)
	assert.Equal(t, 4, cfg.MaxParallelOps)
	assert.Equal(t, 250*time.Millisecond, cfg.OpTimeout)
	assert.False(t, cfg.AnnotateErrors)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("MAX_PARALLEL_OPS", "many")
	t.Setenv("OP_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 10, cfg.MaxParallelOps)
	assert.Equal(t, time.Duration(0), cfg.OpTimeout)
}

func TestLoadFileOverlaysEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: parallel\nmax_parallel_ops: 2\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "parallel", cfg.Method)
	assert.Equal(t, 2, cfg.MaxParallelOps)
	assert.Equal(t, "debug", cfg.LogLevel, "env value survives when the file omits the key")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

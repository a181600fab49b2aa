package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, ".", d.OutDir)
	assert.Equal(t, "info", d.LogLevel)
}

func TestMergePrecedence(t *testing.T) {
	base := Default()
	over := Config{LogLevel: "debug"}
	merged := base.Merge(over)
	assert.Equal(t, "debug", merged.LogLevel)
	assert.Equal(t, ".", merged.OutDir)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_key: 1\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cc: clang\nlog_level: warn\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "clang", c.CC)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestApplyLoggingRejectsBadLevel(t *testing.T) {
	c := Config{LogLevel: "not-a-level"}
	require.Error(t, c.ApplyLogging())
}

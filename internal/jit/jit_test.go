package jit

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempDirPrefersTMPDIR(t *testing.T) {
	old := os.Getenv("TMPDIR")
	defer os.Setenv("TMPDIR", old)

	require.NoError(t, os.Setenv("TMPDIR", "/a/b/c"))
	assert.Equal(t, "/a/b/c", tempDir())
}

func TestTempDirFallsBackToDot(t *testing.T) {
	for _, env := range []string{"TMPDIR", "TMP", "TEMP"} {
		old := os.Getenv(env)
		defer os.Setenv(env, old)
		require.NoError(t, os.Unsetenv(env))
	}
	assert.Equal(t, ".", tempDir())
}

func TestBuildReportsJitcErrorOnBadSource(t *testing.T) {
	art := &Artifact{
		Module:    "broken",
		SourceExt: "c",
		Source:    "this is not valid C\n",
		Header:    "",
	}
	_, err := Build(context.Background(), art)
	require.Error(t, err)
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "10\n", out.String())
}

func TestCompileCommandRequiresArg(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"compile"})
	require.Error(t, cmd.Execute())
}

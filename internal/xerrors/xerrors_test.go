package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "argument", Argument.String())
	assert.Equal(t, "jitc", Jitc.String())
	assert.Equal(t, "unknown", Kind(999).String())
}

func TestNewAndIs(t *testing.T) {
	cause := errors.New("boom")
	err := New(File, "emit.write", "could not write source", cause)
	require.Error(t, err)
	assert.True(t, Is(err, File))
	assert.False(t, Is(err, Memory))
	assert.ErrorIs(t, err, cause)
}

func TestPanicRecovers(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*Error)
		require.True(t, ok)
		assert.Equal(t, Software, e.Kind)
	}()
	Panic("synth.newinst", "program capacity exceeded")
}

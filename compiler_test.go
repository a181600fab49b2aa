package annc

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCC(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no native C toolchain available in this environment")
	}
}

func TestOpenTinyIdentityReportsMemoryHard(t *testing.T) {
	requireCC(t)
	c, err := Open(context.Background(), "sgd", "float", "cross_entropy", 1,
		"x:2", "y:2:softmax", "h1:2:relu")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, uint64(12*4), c.MemoryHard())
	assert.Equal(t, versionConst, c.Version())
}

func TestOpenMNISTShapeReportsMemoryHard(t *testing.T) {
	requireCC(t)
	c, err := Open(context.Background(), "sgd", "float", "cross_entropy", 8,
		"x:784", "y:10:softmax", "h1:30:sigmoid")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, uint64(23860*4), c.MemoryHard())
}

func TestOpenRejectsTooManyHiddenLayers(t *testing.T) {
	hidden := make([]string, maxHiddenLayers+1)
	for i := range hidden {
		hidden[i] = "h:1:relu"
	}
	_, err := Open(context.Background(), "sgd", "float", "mse", 1, "x:1", "y:1:linear", hidden...)
	require.Error(t, err)
}

func TestTrainRejectsNilArguments(t *testing.T) {
	requireCC(t)
	c, err := Open(context.Background(), "sgd", "float", "cross_entropy", 1, "x:2", "y:2:softmax", "h1:2:relu")
	require.NoError(t, err)
	defer c.Close()

	require.Error(t, c.Train(nil, []byte{1, 2, 3, 4}))
	require.Error(t, c.Train([]byte{1, 2, 3, 4}, nil))
	require.Error(t, c.Train(nil, nil))
}

func TestCloseIsIdempotent(t *testing.T) {
	requireCC(t)
	c, err := Open(context.Background(), "sgd", "float", "cross_entropy", 1, "x:1", "y:1:softmax", "h:1:relu")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

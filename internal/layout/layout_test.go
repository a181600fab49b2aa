package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annc-dev/annc/internal/ir"
)

func tinyRecord(t *testing.T) *ir.Record {
	t.Helper()
	b := ir.New()
	defer b.Destroy()
	require.NoError(t, b.Module("tiny"))
	require.NoError(t, b.CostFn("cross_entropy"))
	require.NoError(t, b.Input(2))
	require.NoError(t, b.Hidden(2, ir.Relu))
	require.NoError(t, b.Output(2, ir.Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	return rec
}

func mnistShapeRecord(t *testing.T) *ir.Record {
	t.Helper()
	b := ir.New()
	defer b.Destroy()
	require.NoError(t, b.Module("mnist"))
	require.NoError(t, b.CostFn("cross_entropy"))
	require.NoError(t, b.Batch(8))
	require.NoError(t, b.Input(784))
	require.NoError(t, b.Hidden(30, ir.Sigmoid))
	require.NoError(t, b.Output(10, ir.Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	return rec
}

func TestPlanTinyIdentity(t *testing.T) {
	rec := tinyRecord(t)
	lay, err := Plan(rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), lay.Unit)
	assert.Equal(t, uint64(12*4), lay.MemoryHard)
}

func TestPlanMNISTShape(t *testing.T) {
	rec := mnistShapeRecord(t)
	lay, err := Plan(rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(23860*4), lay.MemoryHard)
}

func TestPlanMemorySizeIncludesGradientsAndActivations(t *testing.T) {
	rec := tinyRecord(t)
	lay, err := Plan(rec)
	require.NoError(t, err)
	// w1+b1+w2+b2 = 12 (hard) + grads 12 + activations (2+2+2)=6 + deltas (2+2)=4 => 34
	assert.Equal(t, uint64(34*4), lay.MemorySize)
}

func TestCheckRejectsMisalignedTotals(t *testing.T) {
	lay := &Layout{Unit: 4, MemoryHard: 8, MemorySize: 8}
	require.NoError(t, lay.Check())
	bad := &Layout{Unit: 4, MemoryHard: 5, MemorySize: 8}
	require.Error(t, bad.Check())
}

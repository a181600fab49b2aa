package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/layout"
)

func tiny(t *testing.T) (*ir.Record, *layout.Layout) {
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
	lay, err := layout.Plan(rec)
	require.NoError(t, err)
	return rec, lay
}

func TestSynthesizeTiny(t *testing.T) {
	rec, lay := tiny(t)
	progs, err := Synthesize(rec, lay)
	require.NoError(t, err)

	require.NotEmpty(t, progs.Initialize)
	assert.Equal(t, Ret, progs.Initialize[len(progs.Initialize)-1].Op)
	assert.Equal(t, Random, progs.Initialize[0].Op)

	assert.Equal(t, CopyX, progs.Activate[0].Op)
	assert.Equal(t, RetArg, progs.Activate[len(progs.Activate)-1].Op)

	assert.Equal(t, SubY, progs.Backprop[0].Op)
	assert.Equal(t, Ret, progs.Backprop[len(progs.Backprop)-1].Op)

	assert.Equal(t, Clear, progs.Train[0].Op)
	assert.Equal(t, BatchLoop, progs.Train[1].Op)
	assert.Equal(t, Ret, progs.Train[len(progs.Train)-1].Op)
}

func TestRandomRangeAsymmetry(t *testing.T) {
	rec, lay := tiny(t)
	progs, err := Synthesize(rec, lay)
	require.NoError(t, err)
	r := progs.Initialize[0]
	n, m := 2.0, 2.0
	wantLo := (-6 / (n + m)) * 1.0
	wantHi := (+6 / (n + m)) * 2.0
	assert.Equal(t, wantLo, r.Lo)
	assert.Equal(t, wantHi, r.Hi)
	assert.NotEqual(t, -r.Lo, r.Hi, "the range is intentionally not symmetric")
}

func TestProgramCapacityPanics(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()
	var p Program
	for i := 0; i <= MaxProgramCapacity; i++ {
		p.emit(Inst{Op: Ret})
	}
}

func TestNonSoftmaxCrossEntropyRejectedBeforeBackprop(t *testing.T) {
	b := ir.New()
	defer b.Destroy()
	require.NoError(t, b.Module("bad"))
	require.NoError(t, b.Input(2))
	require.NoError(t, b.Hidden(2, ir.Relu))
	require.NoError(t, b.Output(2, ir.Linear))
	_, err := b.Finalize()
	require.Error(t, err) // rejected earlier, at ir.Finalize
}

func TestSynthesizeRejectsNoneOptimizerForTrain(t *testing.T) {
	b := ir.New()
	defer b.Destroy()
	require.NoError(t, b.Module("untrained"))
	require.NoError(t, b.Optimizer("none", -1))
	require.NoError(t, b.CostFn("cross_entropy"))
	require.NoError(t, b.Input(2))
	require.NoError(t, b.Hidden(2, ir.Relu))
	require.NoError(t, b.Output(2, ir.Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	lay, err := layout.Plan(rec)
	require.NoError(t, err)

	_, err = Synthesize(rec, lay)
	require.Error(t, err)
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTiny(t *testing.T) *Record {
	t.Helper()
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("tiny"))
	require.NoError(t, b.Prefix(""))
	require.NoError(t, b.CostFn("cross_entropy"))
	require.NoError(t, b.Input(2))
	require.NoError(t, b.Hidden(2, Relu))
	require.NoError(t, b.Output(2, Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	return rec
}

func TestFinalizeDefaults(t *testing.T) {
	rec := buildTiny(t)
	assert.Equal(t, SGD, rec.Optimizer)
	assert.Equal(t, defaultLearningRate, rec.LearningRate)
	assert.Equal(t, Float, rec.Precision)
	assert.Equal(t, uint64(1), rec.Batch)
	assert.Len(t, rec.Hidden, 1)
	assert.Equal(t, "h0", rec.Hidden[0].Name)
}

func TestFinalizeDefaultCostFnIsCrossEntropy(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Hidden(4, Relu))
	require.NoError(t, b.Output(1, Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, CrossEntropy, rec.CostFn)
}

func TestOptimizerSGDCustomLearningRate(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Optimizer("sgd", 0.3))
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Hidden(4, Relu))
	require.NoError(t, b.Output(1, Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, SGD, rec.Optimizer)
	assert.Equal(t, 0.3, rec.LearningRate)
}

func TestOptimizerSGDRejectsOutOfRangeLearningRate(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.Error(t, b.Optimizer("sgd", 0))
	b = New()
	require.Error(t, b.Optimizer("sgd", 1.5))
}

func TestOptimizerNoneAccepted(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Optimizer("none", -1))
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Hidden(4, Relu))
	require.NoError(t, b.Output(1, Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, None, rec.Optimizer)
}

func TestHiddenDeclarationOrderPreserved(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Hidden(4, Relu))
	require.NoError(t, b.Hidden(8, Relu))
	require.NoError(t, b.Hidden(16, Relu))
	require.NoError(t, b.Output(1, Softmax))
	rec, err := b.Finalize()
	require.NoError(t, err)
	sizes := []uint64{rec.Hidden[0].Size, rec.Hidden[1].Size, rec.Hidden[2].Size}
	assert.Equal(t, []uint64{4, 8, 16}, sizes)
	names := []string{rec.Hidden[0].Name, rec.Hidden[1].Name, rec.Hidden[2].Name}
	assert.Equal(t, []string{"h0", "h1", "h2"}, names)
}

func TestDuplicateDirectiveRejected(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	err := b.Module("m2")
	require.Error(t, err)
}

func TestMissingRequiredDirective(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	_, err := b.Finalize()
	require.Error(t, err)
}

func TestFinalizeRequiresAtLeastOneHiddenLayer(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Output(1, Linear))
	_, err := b.Finalize()
	require.Error(t, err)
}

func TestCrossEntropyRequiresSoftmax(t *testing.T) {
	b := New()
	defer b.Destroy()
	require.NoError(t, b.Module("m"))
	require.NoError(t, b.CostFn("cross_entropy"))
	require.NoError(t, b.Input(1))
	require.NoError(t, b.Hidden(4, Relu))
	require.NoError(t, b.Output(1, Linear))
	_, err := b.Finalize()
	require.Error(t, err)
}

func TestInvalidIdentifierRejected(t *testing.T) {
	b := New()
	defer b.Destroy()
	err := b.Module("1bad")
	require.Error(t, err)
}

func TestLayersOrder(t *testing.T) {
	rec := buildTiny(t)
	layers := rec.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, "input", layers[0].Name)
	assert.Equal(t, "h0", layers[1].Name)
	assert.Equal(t, "output", layers[2].Name)
}

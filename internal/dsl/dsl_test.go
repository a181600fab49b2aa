package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annc-dev/annc/internal/ir"
)

const tinySource = `
.module tiny ;
.prefix ;
.optimizer sgd 0.2 ;
.precision float ;
.costfnc cross_entropy ;
.batch 1 ;
.input 2 ;
.hidden 2 relu ;
.output 2 softmax ;
.cuda false ;
`

func TestParseTiny(t *testing.T) {
	rec, err := Parse(tinySource)
	require.NoError(t, err)
	assert.Equal(t, "tiny", rec.Module)
	assert.Equal(t, ir.Float, rec.Precision)
	assert.Equal(t, ir.CrossEntropy, rec.CostFn)
	assert.Equal(t, ir.SGD, rec.Optimizer)
	assert.Equal(t, 0.2, rec.LearningRate)
	assert.Len(t, rec.Hidden, 1)
	assert.False(t, rec.CUDA.IsTrue())
}

func TestParseOptimizerOmittedRateDefaults(t *testing.T) {
	src := `
.module m ;
.optimizer sgd ;
.input 1 ;
.hidden 4 relu ;
.output 1 softmax ;
`
	rec, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, 0.1, rec.LearningRate)
}

func TestParseOptimizerNone(t *testing.T) {
	src := `
.module m ;
.optimizer none ;
.input 1 ;
.hidden 4 relu ;
.output 1 softmax ;
`
	rec, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, ir.None, rec.Optimizer)
}

func TestParseUnknownDirective(t *testing.T) {
	_, err := Parse(".bogus x ;\n")
	require.Error(t, err)
}

func TestParseBadInteger(t *testing.T) {
	_, err := Parse(".module m ;\n.input abc ;\n.output 1 linear ;\n")
	require.Error(t, err)
}

func TestRenderRoundTrips(t *testing.T) {
	src := Render("m", "", "sgd", "float", "mse", 1, 4,
		[]HiddenSpec{{Size: 3, Activation: "relu"}},
		2, "linear", false)
	rec, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "m", rec.Module)
	assert.Equal(t, uint64(4), rec.Input.Size)
	assert.Len(t, rec.Hidden, 1)
}

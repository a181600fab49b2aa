// Package layout implements the Layout Planner: it walks a finalized
// ir.Record and computes the offset, in precision units, of every array
// the generated native module needs, plus the two headline byte totals
// (memory_size, memory_hard) the Facade reports to callers.
//
// The array ordering is load-bearing: weights and biases for every layer
// connection come first (that running total becomes memory_hard,
// everything an already-trained module needs to run Activate), then
// gradient-accumulator buffers of the same shape, then per-layer
// activations and deltas.
package layout

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/xerrors"
)

// Array describes one named buffer inside the arena: its element count
// and its offset from the arena's base address, both in units (not
// bytes).
type Array struct {
	Name   string
	Offset uint64
	Count  uint64
}

// End returns the offset one past the array's last element, in units
// (not bytes) — callers scale by Layout.Unit to get a byte offset.
func (a Array) End() uint64 { return a.Offset + a.Count }

// Layout is the complete offset map for one network, plus the two
// totals derived from it.
type Layout struct {
	Unit uint64

	// Weights and Biases are indexed by connection, i.e. Weights[0] is
	// the weight matrix between layer 0 and layer 1.
	Weights []Array
	Biases  []Array

	GradWeights []Array
	GradBiases  []Array

	// Activations has one entry per layer (including input and output);
	// Deltas has one entry per layer except the input layer.
	Activations []Array
	Deltas      []Array

	// MemoryHard is the size, in bytes, of everything Activate needs: the
	// weights and biases only.
	MemoryHard uint64
	// MemorySize is the full arena size, in bytes: MemoryHard plus
	// gradient accumulators, activations, and deltas.
	MemorySize uint64
}

// Plan computes the Layout for rec.
func Plan(rec *ir.Record) (*Layout, error) {
	unit := rec.Precision.Unit()
	if unit == 0 {
		xerrors.Panic("layout.Plan", "unsupported precision reached the layout planner")
	}

	layers := rec.Layers()
	L := len(layers)
	if L < 2 {
		return nil, xerrors.New(xerrors.Syntax, "layout.Plan", "a network needs at least an input and output layer", nil)
	}

	lay := &Layout{Unit: unit}

	var off uint64
	for l := 1; l < L; l++ {
		n := layers[l-1].Size
		m := layers[l].Size
		lay.Weights = append(lay.Weights, Array{Name: weightName(l), Offset: off, Count: n * m})
		off += n * m
		lay.Biases = append(lay.Biases, Array{Name: biasName(l), Offset: off, Count: m})
		off += m
	}
	lay.MemoryHard = off * unit

	for l := 1; l < L; l++ {
		n := layers[l-1].Size
		m := layers[l].Size
		lay.GradWeights = append(lay.GradWeights, Array{Name: weightName(l) + "_", Offset: off, Count: n * m})
		off += n * m
		lay.GradBiases = append(lay.GradBiases, Array{Name: biasName(l) + "_", Offset: off, Count: m})
		off += m
	}

	for l := 0; l < L; l++ {
		lay.Activations = append(lay.Activations, Array{Name: activationName(l), Offset: off, Count: layers[l].Size})
		off += layers[l].Size
	}
	for l := 1; l < L; l++ {
		lay.Deltas = append(lay.Deltas, Array{Name: deltaName(l), Offset: off, Count: layers[l].Size})
		off += layers[l].Size
	}

	lay.MemorySize = off * unit

	if err := lay.Check(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"memory_hard": lay.MemoryHard,
		"memory_size": lay.MemorySize,
		"layers":      L,
	}).Debug("layout: planned")

	return lay, nil
}

// Check asserts the testable property that both totals are a whole
// number of precision units, the Go-native analogue of alignsl's
// "struct size must be a multiple of 16 bytes" check, generalized from a
// fixed 16-byte GPU alignment to this compiler's own precision unit.
func (l *Layout) Check() error {
	if l.MemoryHard%l.Unit != 0 || l.MemorySize%l.Unit != 0 {
		return xerrors.New(xerrors.Software, "layout.Check", "memory totals are not a whole number of precision units", nil)
	}
	return nil
}

func weightName(l int) string     { return fmt.Sprintf("w%d", l) }
func biasName(l int) string       { return fmt.Sprintf("b%d", l) }
func activationName(l int) string { return fmt.Sprintf("a%d", l) }
func deltaName(l int) string      { return fmt.Sprintf("d%d", l) }

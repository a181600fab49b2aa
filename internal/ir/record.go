// Package ir implements the IR Builder: it accumulates one DSL directive
// at a time and produces a finalized Record describing a feed-forward
// network.
package ir

import (
	"github.com/annc-dev/annc/slbool"
)

// Optimizer names the weight-update rule. None declares a network with
// no training support at all: the front end accepts it, but Synthesize
// refuses to synthesize Train for it and so returns an error.
type Optimizer int

const (
	None Optimizer = iota + 1
	SGD
)

func (o Optimizer) String() string {
	switch o {
	case None:
		return "none"
	case SGD:
		return "sgd"
	default:
		return "unknown"
	}
}

// Precision names the floating-point unit a generated module computes
// in. Fixed is accepted by the DSL but never lowered by the synthesizer
// or emitter: any program that reaches Fixed past the front end is a
// Software-kind invariant violation.
type Precision int

const (
	Float Precision = iota + 1
	Double
	Fixed
)

// Unit returns the byte width of one value in this precision.
func (p Precision) Unit() uint64 {
	switch p {
	case Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

func (p Precision) String() string {
	switch p {
	case Float:
		return "float"
	case Double:
		return "double"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// CostFn names the training loss. CrossEntropy is fused with a Softmax
// output layer by the Program Synthesizer's Backprop stage (d = a - y);
// any other pairing of CrossEntropy with a non-Softmax output is a
// Syntax-kind error caught at Finalize/synthesis time.
type CostFn int

const (
	MSE CostFn = iota + 1
	CrossEntropy
)

func (c CostFn) String() string {
	switch c {
	case MSE:
		return "mse"
	case CrossEntropy:
		return "cross_entropy"
	default:
		return "unknown"
	}
}

// Activation names a layer's nonlinearity.
type Activation int

const (
	Relu Activation = iota + 1
	Linear
	Softmax
	Sigmoid
)

func (a Activation) String() string {
	switch a {
	case Relu:
		return "relu"
	case Linear:
		return "linear"
	case Softmax:
		return "softmax"
	case Sigmoid:
		return "sigmoid"
	default:
		return "unknown"
	}
}

// Node describes one layer: its declared name, width, and (for hidden
// and output layers) activation. Input nodes carry no activation.
type Node struct {
	Name       string
	Size       uint64
	Activation Activation
}

// Record is the finalized, validated description of one network, ready
// to be handed to the Layout Planner.
type Record struct {
	Module       string
	Prefix       string
	Optimizer    Optimizer
	LearningRate float64
	Precision    Precision
	CostFn       CostFn
	Batch        uint64

	Input  Node
	Hidden []Node
	Output Node

	CUDA slbool.Bool
}

// Layers returns Input, Hidden..., Output as a single ordered slice —
// the order every downstream stage (layout, synthesis, emission) walks
// layers in.
func (r *Record) Layers() []Node {
	layers := make([]Node, 0, 2+len(r.Hidden))
	layers = append(layers, r.Input)
	layers = append(layers, r.Hidden...)
	layers = append(layers, r.Output)
	return layers
}

// Package synth implements the Program Synthesizer: it turns a planned
// layout.Layout into four linear instruction programs (Initialize,
// Activate, Backprop, Train), each a flat slice of Inst with no runtime
// shape dispatch — every offset, dimension, and loop bound is a literal
// baked in at synthesis time.
//
// Inst is a tagged sum: Op selects which of the typed fields below are
// meaningful, an explicit discriminated struct in place of an untagged
// union.
package synth

import "github.com/annc-dev/annc/internal/ir"

// Op is one opcode in the synthesized instruction set.
type Op int

const (
	Ret       Op = 1
	RetArg    Op = 2
	BatchLoop Op = 3

	Random Op = 11
	Clear  Op = 12
	CopyX  Op = 13
	Mac1   Op = 14
	Mac2   Op = 15
	Mac3   Op = 16
	Mac4   Op = 17
	Add    Op = 18
	SubY   Op = 19

	Relu    Op = 100 + Op(ir.Relu)
	Linear  Op = 100 + Op(ir.Linear)
	Softmax Op = 100 + Op(ir.Softmax)
	Sigmoid Op = 100 + Op(ir.Sigmoid)

	ReluD    Op = 1000 + Op(ir.Relu)
	LinearD  Op = 1000 + Op(ir.Linear)
	SoftmaxD Op = 1000 + Op(ir.Softmax)
	SigmoidD Op = 1000 + Op(ir.Sigmoid)
)

// ActivationOp returns the forward-pass opcode for an activation kind.
func ActivationOp(a ir.Activation) Op { return 100 + Op(a) }

// DerivativeOp returns the backward-pass opcode for an activation kind.
func DerivativeOp(a ir.Activation) Op { return 1000 + Op(a) }

func (o Op) String() string {
	switch o {
	case Ret:
		return "RET"
	case RetArg:
		return "RETARG"
	case BatchLoop:
		return "BATCHLOOP"
	case Random:
		return "RANDOM"
	case Clear:
		return "CLEAR"
	case CopyX:
		return "COPYX"
	case Mac1:
		return "MAC1"
	case Mac2:
		return "MAC2"
	case Mac3:
		return "MAC3"
	case Mac4:
		return "MAC4"
	case Add:
		return "ADD"
	case SubY:
		return "SUBY"
	case Relu:
		return "RELU"
	case Linear:
		return "LINEAR"
	case Softmax:
		return "SOFTMAX"
	case Sigmoid:
		return "SIGMOID"
	case ReluD:
		return "RELUD"
	case LinearD:
		return "LINEARD"
	case SoftmaxD:
		return "SOFTMAXD"
	case SigmoidD:
		return "SIGMOIDD"
	default:
		return "UNKNOWN"
	}
}

// Inst is one instruction. Which fields are meaningful depends on Op;
// see the comment on each synthesis function in synth.go for the exact
// field usage of every opcode it emits.
type Inst struct {
	Op Op

	// Offsets into the arena, in elements (not bytes) of the network's
	// precision unit.
	Z, A, B, C uint64

	// Dimensions.
	N, M, Count uint64

	// Literal scalars.
	Lo, Hi, Scale float64
}

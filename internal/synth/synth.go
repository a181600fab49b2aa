package synth

import (
	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/layout"
	"github.com/annc-dev/annc/internal/xerrors"
)

// MaxProgramCapacity bounds how many instructions a single program may
// hold. A program that would exceed it is a Software-kind invariant
// violation. Instruction counts grow with the number of layers (a few
// per layer), not with layer widths or batch size; the Facade's
// hidden-layer cap keeps its networks well under this, and the DSL
// itself places no limit on the number of hidden layers.
const MaxProgramCapacity = 1000

// Program is one of the four linear instruction programs.
type Program []Inst

func (p *Program) emit(inst Inst) {
	if len(*p) >= MaxProgramCapacity {
		xerrors.Panic("synth.Program.emit", "program capacity exceeded")
	}
	*p = append(*p, inst)
}

// Programs holds the four synthesized programs for one network.
type Programs struct {
	Initialize Program
	Activate   Program
	Backprop   Program
	Train      Program
}

// Synthesize runs all four synthesis passes over rec/lay. Initialize and
// Activate need no optimizer at all; Backprop needs a cross-entropy +
// softmax cost/output pairing (checked independent of Optimizer); Train
// needs rec.Optimizer == ir.SGD and is the only pass that rejects a
// None optimizer. Any pass failing makes Synthesize return an error and
// no programs, so a None network cannot be synthesized at all.
func Synthesize(rec *ir.Record, lay *layout.Layout) (*Programs, error) {
	backprop, err := synthBackprop(rec, lay)
	if err != nil {
		return nil, err
	}
	train, err := synthTrain(rec, lay)
	if err != nil {
		return nil, err
	}
	return &Programs{
		Initialize: synthInitialize(rec, lay),
		Activate:   synthActivate(rec, lay),
		Backprop:   backprop,
		Train:      train,
	}, nil
}

// synthInitialize emits, per layer connection: RANDOM over the weight
// matrix with the asymmetric range lo=(-6/(n+m))*1, hi=(+6/(n+m))*2
// (preserved exactly, including the literal *1/*2 factors — see
// DESIGN.md), then CLEAR over the bias vector. Tail: RET.
func synthInitialize(rec *ir.Record, lay *layout.Layout) Program {
	var p Program
	layers := rec.Layers()
	for l := 1; l < len(layers); l++ {
		n := float64(layers[l-1].Size)
		m := float64(layers[l].Size)
		w := lay.Weights[l-1]
		b := lay.Biases[l-1]
		lo := (-6 / (n + m)) * 1.0
		hi := (+6 / (n + m)) * 2.0
		p.emit(Inst{Op: Random, Z: w.Offset, Count: w.Count, Lo: lo, Hi: hi})
		p.emit(Inst{Op: Clear, Z: b.Offset, Count: b.Count})
	}
	p.emit(Inst{Op: Ret})
	return p
}

// synthActivate emits COPYX to seed the input activation buffer, then
// per layer connection: MAC1 (z = A·B), ADD (+ bias), and the layer's
// activation opcode. Tail: RETARG pointing at the output layer's
// activation buffer.
func synthActivate(rec *ir.Record, lay *layout.Layout) Program {
	var p Program
	layers := rec.Layers()
	a0 := lay.Activations[0]
	p.emit(Inst{Op: CopyX, Z: a0.Offset, Count: a0.Count})
	for l := 1; l < len(layers); l++ {
		n := layers[l-1].Size
		m := layers[l].Size
		w := lay.Weights[l-1]
		b := lay.Biases[l-1]
		aPrev := lay.Activations[l-1]
		aCur := lay.Activations[l]
		p.emit(Inst{Op: Mac1, Z: aCur.Offset, A: aPrev.Offset, B: w.Offset, N: n, M: m})
		p.emit(Inst{Op: Add, Z: aCur.Offset, B: b.Offset, Count: m})
		p.emit(Inst{Op: ActivationOp(layers[l].Activation), Z: aCur.Offset, Count: m})
	}
	last := lay.Activations[len(lay.Activations)-1]
	p.emit(Inst{Op: RetArg, Z: last.Offset, Count: last.Count})
	return p
}

// synthBackprop requires a CrossEntropy cost paired with a Softmax
// output (fusing to d = a - y via SUBY); any other pairing reaching this
// stage is a Software-kind panic. ir.Builder.Finalize already rejects
// cross_entropy without a softmax output, but an mse cost passes Finalize
// and panics here. It then walks
// hidden layers back-to-front propagating deltas with MAC2 (the
// transposed-weight contraction) and each layer's derivative opcode —
// rejecting a hidden Softmax or Linear layer outright, since SOFTMAXD and
// LINEARD are unimplemented —
// and finally walks forward accumulating gradients with ADD and MAC3.
// Tail: RET.
func synthBackprop(rec *ir.Record, lay *layout.Layout) (Program, error) {
	if rec.CostFn != ir.CrossEntropy || rec.Output.Activation != ir.Softmax {
		xerrors.Panic("synth.synthBackprop", "backprop requires cross_entropy fused with a softmax output")
	}
	layers := rec.Layers()
	L := len(layers)

	var p Program
	outDelta := lay.Deltas[L-2] // Deltas[l-1] corresponds to layer l
	outAct := lay.Activations[L-1]
	p.emit(Inst{Op: SubY, Z: outDelta.Offset, A: outAct.Offset, B: 0 /* y, bound by caller */, Count: outDelta.Count})

	for l := L - 2; l >= 1; l-- {
		if layers[l].Activation == ir.Softmax || layers[l].Activation == ir.Linear {
			return nil, xerrors.New(xerrors.Syntax, "synth.synthBackprop", "softmax and linear are only valid on the output layer", nil)
		}
		w := lay.Weights[l] // connection l+1, i.e. w[l+1] in 1-based layer numbering
		dCur := lay.Deltas[l-1]
		dNext := lay.Deltas[l]
		aCur := lay.Activations[l]
		n := layers[l].Size
		m := layers[l+1].Size
		p.emit(Inst{Op: Mac2, Z: dCur.Offset, A: w.Offset, B: dNext.Offset, N: n, M: m})
		p.emit(Inst{Op: DerivativeOp(layers[l].Activation), Z: dCur.Offset, A: aCur.Offset, Count: n})
	}

	for l := 1; l < L; l++ {
		n := layers[l-1].Size
		m := layers[l].Size
		gb := lay.GradBiases[l-1]
		gw := lay.GradWeights[l-1]
		d := lay.Deltas[l-1]
		aPrev := lay.Activations[l-1]
		p.emit(Inst{Op: Add, Z: gb.Offset, B: d.Offset, Count: m})
		p.emit(Inst{Op: Mac3, Z: gw.Offset, B: aPrev.Offset, C: d.Offset, N: n, M: m})
	}

	p.emit(Inst{Op: Ret})
	return p, nil
}

// synthTrain clears the gradient-accumulator region, brackets one pass
// over the batch with BATCHLOOP (the emitter lowers this to a C loop
// that invokes the generated activate/backprop internals per sample),
// then applies the SGD update with two MAC4 instructions per layer
// (weights, then biases), scaled by -(rec.LearningRate / batch). Tail:
// RET. A None optimizer has no update rule to synthesize and is
// rejected here with a Syntax error, not a panic: ".optimizer none"
// parses and finalizes as a legal IR value, and this is where such a
// network is refused.
func synthTrain(rec *ir.Record, lay *layout.Layout) (Program, error) {
	if rec.Optimizer != ir.SGD {
		return nil, xerrors.New(xerrors.Syntax, "synth.synthTrain", "training requires the sgd optimizer", nil)
	}
	var p Program
	layers := rec.Layers()

	gradStart := lay.GradWeights[0].Offset
	gradEnd := lay.GradBiases[len(lay.GradBiases)-1].End()
	p.emit(Inst{Op: Clear, Z: gradStart, Count: gradEnd - gradStart})

	p.emit(Inst{Op: BatchLoop, Count: rec.Batch})

	scale := -(rec.LearningRate / float64(rec.Batch))
	for l := 1; l < len(layers); l++ {
		w := lay.Weights[l-1]
		b := lay.Biases[l-1]
		gw := lay.GradWeights[l-1]
		gb := lay.GradBiases[l-1]
		p.emit(Inst{Op: Mac4, Z: w.Offset, B: gw.Offset, Count: w.Count, Scale: scale})
		p.emit(Inst{Op: Mac4, Z: b.Offset, B: gb.Offset, Count: b.Count, Scale: scale})
	}

	p.emit(Inst{Op: Ret})
	return p, nil
}

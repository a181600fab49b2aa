package ir

import (
	"fmt"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/annc-dev/annc/internal/xerrors"
)

// maxBatch and maxSize bound batch size and any single layer width to
// keep generated loops and buffers in a sane range; the Layout Planner
// and Program Synthesizer assume these hold.
const (
	maxBatch = 1000
	maxSize  = 1000000
)

// directive enumerates the once-only DSL statements the Builder tracks.
type directive int

const (
	dirModule directive = iota
	dirPrefix
	dirOptimizer
	dirPrecision
	dirCostFn
	dirBatch
	dirInput
	dirOutput
	dirCUDA
	numDirectives
)

// Builder accumulates DSL directives into a Record. A Builder is valid
// for exactly one network: call Finalize once all directives have been
// applied, then Destroy to release any arena-held scratch state.
type Builder struct {
	rec  Record
	seen [numDirectives]bool

	hidden      []Node // accumulated by prepend, reversed in Finalize
	hiddenCount int    // declaration-order counter, used to name hidden layers

	arena []string // owns every string this Builder interned
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Destroy releases the Builder's scratch state. Go's garbage collector
// makes this unnecessary for correctness; it is kept as an explicit call
// so the contract ("one call frees everything the builder allocated")
// stays visible at call sites.
func (b *Builder) Destroy() {
	b.arena = nil
	b.hidden = nil
}

func (b *Builder) intern(s string) string {
	b.arena = append(b.arena, s)
	return s
}

// validIdent reports whether s is a legal DSL identifier:
// [A-Za-z_][A-Za-z0-9_]*.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

func (b *Builder) markOnce(d directive, name string) error {
	if b.seen[d] {
		return xerrors.New(xerrors.Syntax, "ir.Builder", fmt.Sprintf("duplicate %s directive", name), nil)
	}
	b.seen[d] = true
	return nil
}

// Module records the .module directive.
func (b *Builder) Module(name string) error {
	if err := b.markOnce(dirModule, "module"); err != nil {
		return err
	}
	if !validIdent(name) {
		return xerrors.New(xerrors.Syntax, "ir.Builder.Module", "invalid module identifier", nil)
	}
	b.rec.Module = b.intern(name)
	return nil
}

// Prefix records the .prefix directive. An empty prefix is legal: the
// Facade forces it to "" for its own temporary compiles (see the root
// package's Open), which is why prefix is never required to be non-empty
// here, only to be a valid identifier when non-empty.
func (b *Builder) Prefix(name string) error {
	if err := b.markOnce(dirPrefix, "prefix"); err != nil {
		return err
	}
	if name != "" && !validIdent(name) {
		return xerrors.New(xerrors.Syntax, "ir.Builder.Prefix", "invalid prefix identifier", nil)
	}
	b.rec.Prefix = b.intern(name)
	return nil
}

// defaultLearningRate is used when .optimizer sgd omits its rate
// argument, per spec: default SGD / 0.1.
const defaultLearningRate = 0.1

// Optimizer records the .optimizer directive. rate is only meaningful
// for "sgd"; pass a negative rate to mean "omitted", which applies
// defaultLearningRate. A "none" network never trains: Synthesize refuses
// to synthesize Train for it and so returns an error.
func (b *Builder) Optimizer(name string, rate float64) error {
	if err := b.markOnce(dirOptimizer, "optimizer"); err != nil {
		return err
	}
	switch name {
	case "none":
		b.rec.Optimizer = None
	case "sgd":
		if rate < 0 {
			rate = defaultLearningRate
		}
		if rate <= 0 || rate > 1 {
			return xerrors.New(xerrors.Syntax, "ir.Builder.Optimizer", "learning rate out of range", nil)
		}
		b.rec.Optimizer = SGD
		b.rec.LearningRate = rate
	default:
		return xerrors.New(xerrors.Syntax, "ir.Builder.Optimizer", "unknown optimizer: "+name, nil)
	}
	return nil
}

// Precision records the .precision directive.
func (b *Builder) Precision(name string) error {
	if err := b.markOnce(dirPrecision, "precision"); err != nil {
		return err
	}
	switch name {
	case "float":
		b.rec.Precision = Float
	case "double":
		b.rec.Precision = Double
	case "fixed":
		b.rec.Precision = Fixed
	default:
		return xerrors.New(xerrors.Syntax, "ir.Builder.Precision", "unknown precision: "+name, nil)
	}
	return nil
}

// CostFn records the .costfnc directive.
func (b *Builder) CostFn(name string) error {
	if err := b.markOnce(dirCostFn, "cost_fn"); err != nil {
		return err
	}
	switch name {
	case "mse":
		b.rec.CostFn = MSE
	case "cross_entropy":
		b.rec.CostFn = CrossEntropy
	default:
		return xerrors.New(xerrors.Syntax, "ir.Builder.CostFn", "unknown cost_fn: "+name, nil)
	}
	return nil
}

// Batch records the .batch directive.
func (b *Builder) Batch(n uint64) error {
	if err := b.markOnce(dirBatch, "batch"); err != nil {
		return err
	}
	if n == 0 || n > maxBatch {
		return xerrors.New(xerrors.Syntax, "ir.Builder.Batch", "batch out of range", nil)
	}
	b.rec.Batch = n
	return nil
}

func checkNodeSize(n uint64) error {
	if n == 0 || n > maxSize {
		return xerrors.New(xerrors.Syntax, "ir.Builder", "node size out of range", nil)
	}
	return nil
}

// Input records the .input directive. The DSL grammar carries no layer
// name, so Input always names the node "input"; Name exists on Node for
// debugging and is never consulted by layout, synthesis, or emission.
func (b *Builder) Input(size uint64) error {
	if err := b.markOnce(dirInput, "input"); err != nil {
		return err
	}
	if err := checkNodeSize(size); err != nil {
		return err
	}
	b.rec.Input = Node{Name: b.intern("input"), Size: size}
	return nil
}

// Output records the .output directive.
func (b *Builder) Output(size uint64, activation Activation) error {
	if err := b.markOnce(dirOutput, "output"); err != nil {
		return err
	}
	if err := checkNodeSize(size); err != nil {
		return err
	}
	b.rec.Output = Node{Name: b.intern("output"), Size: size, Activation: activation}
	return nil
}

// Hidden records one .hidden directive. Hidden layers may repeat, one
// directive per layer; the Builder prepends each onto an internal list
// and Finalize reverses only that list, so the externally observable
// order is always declaration order. Each is named "h<n>" by declaration
// order, since the grammar itself carries no name.
func (b *Builder) Hidden(size uint64, activation Activation) error {
	if err := checkNodeSize(size); err != nil {
		return err
	}
	name := b.intern(fmt.Sprintf("h%d", b.hiddenCount))
	b.hiddenCount++
	b.hidden = append([]Node{{Name: name, Size: size, Activation: activation}}, b.hidden...)
	return nil
}

// CUDA records the .cuda directive.
func (b *Builder) CUDA(on bool) error {
	if err := b.markOnce(dirCUDA, "cuda"); err != nil {
		return err
	}
	b.rec.CUDA.SetBool(on)
	return nil
}

// Finalize applies defaults, checks required fields, restores
// declaration order on the hidden-layer list, and returns the completed
// Record.
func (b *Builder) Finalize() (*Record, error) {
	if !b.seen[dirModule] {
		return nil, xerrors.New(xerrors.Syntax, "ir.Builder.Finalize", "missing .module", nil)
	}
	if !b.seen[dirInput] {
		return nil, xerrors.New(xerrors.Syntax, "ir.Builder.Finalize", "missing .input", nil)
	}
	if !b.seen[dirOutput] {
		return nil, xerrors.New(xerrors.Syntax, "ir.Builder.Finalize", "missing .output", nil)
	}
	if !b.seen[dirOptimizer] {
		b.rec.Optimizer = SGD
		b.rec.LearningRate = defaultLearningRate
	}
	if !b.seen[dirPrecision] {
		b.rec.Precision = Float
	}
	if !b.seen[dirCostFn] {
		b.rec.CostFn = CrossEntropy
	}
	if !b.seen[dirBatch] {
		b.rec.Batch = 1
	}

	hidden := slices.Clone(b.hidden)
	slices.Reverse(hidden)
	if len(hidden) == 0 {
		return nil, xerrors.New(xerrors.Syntax, "ir.Builder.Finalize", "at least one hidden layer is required", nil)
	}
	b.rec.Hidden = hidden

	if b.rec.CostFn == CrossEntropy && b.rec.Output.Activation != Softmax {
		return nil, xerrors.New(xerrors.Syntax, "ir.Builder.Finalize", "cross_entropy requires a softmax output", nil)
	}

	logrus.WithFields(logrus.Fields{
		"module":  b.rec.Module,
		"hidden":  len(hidden),
		"batch":   b.rec.Batch,
		"cuda":    b.rec.CUDA.IsTrue(),
		"optimiz": b.rec.Optimizer,
	}).Debug("ir: finalized record")

	rec := b.rec
	return &rec, nil
}

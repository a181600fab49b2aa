// Package annc is the Facade: it drives the whole pipeline (front end,
// layout planning, program synthesis, code emission, build-and-load) for
// a single Open call and then exposes the resulting module's six entry
// points as Go methods over a caller-owned arena it allocates and frees.
//
package annc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/internal/dsl"
	"github.com/annc-dev/annc/internal/emit"
	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/jit"
	"github.com/annc-dev/annc/internal/layout"
	"github.com/annc-dev/annc/internal/ptime"
	"github.com/annc-dev/annc/internal/synth"
	"github.com/annc-dev/annc/internal/xerrors"
)

// maxHiddenLayers bounds how many hidden layers a single network may
// declare; Open rejects anything beyond it.
const maxHiddenLayers = 10

// Compiler is a single compiled, loaded network. It owns a dlopen'd
// shared object and the arena that backs every call into it. A Compiler
// is not safe for concurrent use from multiple goroutines — it carries
// no internal locking.
type Compiler struct {
	handle      *jit.Handle
	arena       unsafe.Pointer
	size        uint64
	hard        uint64
	prec        ir.Precision
	outputElems uint64
	closed      bool
}

// Version returns the compiler's version constant, shared by every
// module this package builds.
func Version() int { return versionConst }

const versionConst = 10

// Open compiles, builds, loads, and initializes a new network.
//
// input is "name:size". output is "name:size:activation". Each of
// hidden is "name:size:activation", in declaration order; Open accepts
// at most 10 hidden layers. The network description language has no
// notion of a layer name, so the name component of each spec is only for
// the caller's own readability; it is parsed and discarded.
func Open(ctx context.Context, optimizer, precision, costFn string, batch uint64, input, output string, hidden ...string) (*Compiler, error) {
	if len(hidden) > maxHiddenLayers {
		return nil, xerrors.New(xerrors.Argument, "annc.Open", "too many hidden layers", nil)
	}

	_, inputSize, err := parseInputSpec(input)
	if err != nil {
		return nil, err
	}
	_, outputSize, outputAct, err := parseLayerSpec(output)
	if err != nil {
		return nil, err
	}
	hiddenSpecs := make([]dsl.HiddenSpec, 0, len(hidden))
	for _, h := range hidden {
		_, size, act, err := parseLayerSpec(h)
		if err != nil {
			return nil, err
		}
		hiddenSpecs = append(hiddenSpecs, dsl.HiddenSpec{Size: size, Activation: act})
	}

	module := fmt.Sprintf("_%08x_", tagModule())
	source := dsl.Render(module, "", optimizer, precision, costFn, batch,
		inputSize, hiddenSpecs, outputSize, outputAct, false)

	phases := ptime.NewPhases()

	var rec *ir.Record
	if err := phases.Track("parse", func() error {
		var err error
		rec, err = dsl.Parse(source)
		return err
	}); err != nil {
		return nil, err
	}

	var lay *layout.Layout
	if err := phases.Track("layout", func() error {
		var err error
		lay, err = layout.Plan(rec)
		return err
	}); err != nil {
		return nil, err
	}

	var progs *synth.Programs
	if err := phases.Track("synthesize", func() error {
		var err error
		progs, err = synth.Synthesize(rec, lay)
		return err
	}); err != nil {
		return nil, err
	}

	var art *emit.Artifact
	if err := phases.Track("emit", func() error {
		var err error
		art, err = emit.Emit(rec, lay, progs)
		return err
	}); err != nil {
		return nil, err
	}

	var handle *jit.Handle
	if err := phases.Track("build", func() error {
		var err error
		handle, err = jit.Build(ctx, &jit.Artifact{
			Module:    art.Module,
			SourceExt: art.SourceExt,
			Source:    art.Source,
			Header:    art.Header,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if handle.Version() != versionConst {
		handle.Close()
		return nil, xerrors.New(xerrors.System, "annc.Open", "loaded module version mismatch", nil)
	}

	size := handle.MemorySize()
	hard := handle.MemoryHard()
	arena := jit.MallocArena(size)
	if arena == nil {
		handle.Close()
		return nil, xerrors.New(xerrors.Memory, "annc.Open", "could not allocate arena", nil)
	}

	c := &Compiler{
		handle:      handle,
		arena:       arena,
		size:        size,
		hard:        hard,
		prec:        rec.Precision,
		outputElems: rec.Output.Size,
	}
	handle.Initialize(arena)

	logrus.WithFields(logrus.Fields{
		"module":      module,
		"memory_size": size,
		"memory_hard": hard,
		"phases":      phases.Report(),
	}).Debug("annc: module ready")

	return c, nil
}

func parseInputSpec(s string) (name string, size uint64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", 0, xerrors.New(xerrors.Argument, "annc.parseInputSpec", "expected name:size", nil)
	}
	n, convErr := strconv.ParseUint(parts[1], 10, 64)
	if convErr != nil {
		return "", 0, xerrors.New(xerrors.Argument, "annc.parseInputSpec", "invalid size", convErr)
	}
	return parts[0], n, nil
}

func parseLayerSpec(s string) (name string, size uint64, activation string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return "", 0, "", xerrors.New(xerrors.Argument, "annc.parseLayerSpec", "expected name:size:activation", nil)
	}
	n, convErr := strconv.ParseUint(parts[1], 10, 64)
	if convErr != nil {
		return "", 0, "", xerrors.New(xerrors.Argument, "annc.parseLayerSpec", "invalid size", convErr)
	}
	return parts[0], n, parts[2], nil
}

var moduleTagCounter uint32

func tagModule() uint32 {
	moduleTagCounter++
	return moduleTagCounter
}

// MemorySize returns the total arena size, in bytes, this Compiler
// allocated.
func (c *Compiler) MemorySize() uint64 {
	if c.closed {
		return 0
	}
	return c.size
}

// MemoryHard returns the size, in bytes, of the subset of the arena
// Activate alone depends on.
func (c *Compiler) MemoryHard() uint64 {
	if c.closed {
		return 0
	}
	return c.hard
}

// Activate runs a forward pass over x, returning a view of the output
// layer's activation buffer. The returned slice aliases arena memory and
// is only valid until the next call into this Compiler.
func (c *Compiler) Activate(x []byte) ([]byte, error) {
	if c.closed {
		return nil, xerrors.New(xerrors.Argument, "annc.Compiler.Activate", "compiler is closed", nil)
	}
	if x == nil {
		return nil, xerrors.New(xerrors.Argument, "annc.Compiler.Activate", "x must not be nil", nil)
	}
	out := c.handle.Activate(c.arena, unsafe.Pointer(&x[0]))
	outputBytes := c.outputElems * c.prec.Unit()
	return unsafe.Slice((*byte)(out), outputBytes), nil
}

// Train runs one batch-sized SGD step over x, y.
func (c *Compiler) Train(x, y []byte) error {
	if c.closed || x == nil || y == nil {
		return xerrors.New(xerrors.Argument, "annc.Compiler.Train", "invalid arguments", nil)
	}
	c.handle.Train(c.arena, unsafe.Pointer(&x[0]), unsafe.Pointer(&y[0]))
	return nil
}

// Version returns this module's embedded version constant, which always
// equals the package-level Version().
func (c *Compiler) Version() int {
	if c.closed {
		return 0
	}
	return c.handle.Version()
}

// Close unloads the module and frees its arena. Close is idempotent.
func (c *Compiler) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	jit.FreeArena(c.arena)
	c.arena = nil
	return c.handle.Close()
}

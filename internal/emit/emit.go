// Package emit implements the Code Emitter: it lowers four synthesized
// synth.Program values into a single translation unit of generated C
// (or CUDA, when the IR's CUDA flag is set) — fully unrolled, with every
// offset and dimension baked in as a literal, no runtime shape dispatch.
package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/goki/ki/ints"

	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/layout"
	"github.com/annc-dev/annc/internal/synth"
	"github.com/annc-dev/annc/internal/xerrors"
)

// Artifact is one emitted translation unit: a .c/.cu source and its
// companion .h, both as in-memory text, named by Module.
type Artifact struct {
	Module     string
	SourceExt  string // "c" or "cu"
	Source     string
	Header     string
}

// precisionType returns the C scalar type for an ir.Precision. Fixed has
// no C representation: reaching it here is a Software-kind invariant
// violation, since the DSL front end and ir.Builder never let a
// well-formed Record claim Fixed without the layout planner also
// rejecting it first via Precision.Unit() == 0.
func precisionType(p ir.Precision) string {
	switch p {
	case ir.Float:
		return "float"
	case ir.Double:
		return "double"
	default:
		xerrors.Panic("emit.precisionType", "unsupported precision reached the code emitter")
		return ""
	}
}

// offsetType picks the narrowest C integer type wide enough to index the
// arena: uint32_t unless the largest offset actually used overflows it.
func offsetType(lay *layout.Layout) string {
	maxOffset := 0
	note := func(a layout.Array) {
		maxOffset = ints.Max(maxOffset, int(a.End()))
	}
	for _, a := range lay.Weights {
		note(a)
	}
	for _, a := range lay.Biases {
		note(a)
	}
	for _, a := range lay.GradWeights {
		note(a)
	}
	for _, a := range lay.GradBiases {
		note(a)
	}
	for _, a := range lay.Activations {
		note(a)
	}
	for _, a := range lay.Deltas {
		note(a)
	}
	if maxOffset > 0xFFFFFFFF {
		return "uint64_t"
	}
	return "uint32_t"
}

var instTemplates = map[synth.Op]*template.Template{}

func mustTemplate(op synth.Op, body string) {
	instTemplates[op] = template.Must(template.New(op.String()).Parse(body))
}

func init() {
	mustTemplate(synth.Ret, `	return;
`)
	mustTemplate(synth.RetArg, `	return (const {{.Prec}} *)(arena + {{.Z}});
`)
	mustTemplate(synth.BatchLoop, `	for ({{.OffT}} __s = 0; __s < {{.Count}}; __s++) {
		_activate_(arena, (const {{.Prec}} *)x + __s * {{.InputCount}});
		_backprop_internal_(arena, (const {{.Prec}} *)y + __s * {{.OutputCount}});
	}
`)
	mustTemplate(synth.Random, `	for ({{.OffT}} __i = 0; __i < {{.Count}}; __i++) {
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		{{.Prec}} u = (({{.Prec}})rand()) / (({{.Prec}})RAND_MAX);
		z[__i] = ({{.Prec}})({{.Lo}}) + u * ({{.Prec}})({{.Hi}});
	}
`)
	mustTemplate(synth.Clear, `	memset(arena + {{.Z}}, 0, {{.Count}} * sizeof({{.Prec}}));
`)
	mustTemplate(synth.CopyX, `	memcpy(arena + {{.Z}}, x, {{.Count}} * sizeof({{.Prec}}));
`)
	mustTemplate(synth.Mac1, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *a = ({{.Prec}} *)(arena + {{.A}});
		const {{.Prec}} *b = ({{.Prec}} *)(arena + {{.B}});
		for ({{.OffT}} j = 0; j < {{.M}}; j++) {
			{{.Prec}} sum = 0;
			for ({{.OffT}} i = 0; i < {{.N}}; i++) {
				sum += a[i] * b[i * {{.M}} + j];
			}
			z[j] = sum;
		}
	}
`)
	mustTemplate(synth.Mac2, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *a = ({{.Prec}} *)(arena + {{.A}});
		const {{.Prec}} *b = ({{.Prec}} *)(arena + {{.B}});
		for ({{.OffT}} i = 0; i < {{.N}}; i++) {
			{{.Prec}} sum = 0;
			for ({{.OffT}} j = 0; j < {{.M}}; j++) {
				sum += a[i * {{.M}} + j] * b[j];
			}
			z[i] = sum;
		}
	}
`)
	mustTemplate(synth.Mac3, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *b = ({{.Prec}} *)(arena + {{.B}});
		const {{.Prec}} *c = ({{.Prec}} *)(arena + {{.C}});
		for ({{.OffT}} i = 0; i < {{.N}}; i++) {
			for ({{.OffT}} j = 0; j < {{.M}}; j++) {
				z[i * {{.M}} + j] += b[i] * c[j];
			}
		}
	}
`)
	mustTemplate(synth.Mac4, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *b = ({{.Prec}} *)(arena + {{.B}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] += b[i] * ({{.Prec}})({{.Scale}});
		}
	}
`)
	mustTemplate(synth.Add, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *b = ({{.Prec}} *)(arena + {{.B}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] += b[i];
		}
	}
`)
	mustTemplate(synth.SubY, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *a = ({{.Prec}} *)(arena + {{.A}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] = a[i] - y[i];
		}
	}
`)
	mustTemplate(synth.Relu, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] = z[i] > 0 ? z[i] : 0;
		}
	}
`)
	mustTemplate(synth.Linear, `	/* linear activation is the identity: nothing to do */
`)
	mustTemplate(synth.Softmax, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		{{.Prec}} max = z[0];
		for ({{.OffT}} i = 1; i < {{.Count}}; i++) {
			if (z[i] > max) max = z[i];
		}
		{{.Prec}} sum = 0;
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] = ({{.Prec}})exp((double)(z[i] - max));
			sum += z[i];
		}
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			z[i] /= sum;
		}
	}
`)
	mustTemplate(synth.Sigmoid, `	{
		{{.Prec}} *z = ({{.Prec}} *)(arena + {{.Z}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			if (z[i] >= 0) {
				z[i] = ({{.Prec}})(1.0 / (1.0 + exp((double)(-z[i]))));
			} else {
				{{.Prec}} e = ({{.Prec}})exp((double)z[i]);
				z[i] = e / (1 + e);
			}
		}
	}
`)
	mustTemplate(synth.ReluD, `	{
		{{.Prec}} *d = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *a = ({{.Prec}} *)(arena + {{.A}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			d[i] *= a[i] > 0 ? ({{.Prec}})1 : ({{.Prec}})0;
		}
	}
`)
	mustTemplate(synth.SigmoidD, `	{
		{{.Prec}} *d = ({{.Prec}} *)(arena + {{.Z}});
		const {{.Prec}} *a = ({{.Prec}} *)(arena + {{.A}});
		for ({{.OffT}} i = 0; i < {{.Count}}; i++) {
			d[i] *= a[i] * (1 - a[i]);
		}
	}
`)
}

// unsupportedOps are accepted by the opcode enum but never lowered: the
// synthesizer never emits them (it rejects hidden linear and softmax
// layers, and the output softmax is fused with cross-entropy via SubY), so any program
// containing one reaching the emitter is a Software-kind invariant
// violation.
var unsupportedOps = map[synth.Op]bool{
	synth.LinearD:  true,
	synth.SoftmaxD: true,
}

type instData struct {
	Z, A, B, C, N, M, Count uint64
	Lo, Hi, Scale           float64
	Prec                    string
	OffT                    string
	InputCount, OutputCount uint64
}

// lowerInst renders one instruction as C source. inst.Z/A/B/C are
// element offsets into the arena (see synth.Inst); the emitter is the
// one place that knows the arena is addressed as unsigned char *, so it
// scales each by unit to get the byte offset the templates splice
// straight into "arena + {{.Z}}". N/M/Count stay in elements: they are
// either loop bounds over an already-typed pointer or multiplied by
// sizeof(Prec) explicitly inside the template (Clear, CopyX).
func lowerInst(inst synth.Inst, prec, offT string, unit, inputCount, outputCount uint64) (string, error) {
	if unsupportedOps[inst.Op] {
		xerrors.Panic("emit.lowerInst", fmt.Sprintf("%s has no implementation", inst.Op))
	}
	tmpl, ok := instTemplates[inst.Op]
	if !ok {
		xerrors.Panic("emit.lowerInst", fmt.Sprintf("no template registered for opcode %s", inst.Op))
	}
	data := instData{
		Z: inst.Z * unit, A: inst.A * unit, B: inst.B * unit, C: inst.C * unit,
		N: inst.N, M: inst.M, Count: inst.Count,
		Lo: inst.Lo, Hi: inst.Hi, Scale: inst.Scale,
		Prec: prec, OffT: offT,
		InputCount: inputCount, OutputCount: outputCount,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", xerrors.New(xerrors.Software, "emit.lowerInst", "template execution failed", err)
	}
	return buf.String(), nil
}

func lowerProgram(name string, prog synth.Program, prec, offT string, unit, inputCount, outputCount uint64, extraParams string) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "static void\n%s(unsigned char *arena%s)\n{\n", name, extraParams)
	for _, inst := range prog {
		s, err := lowerInst(inst, prec, offT, unit, inputCount, outputCount)
		if err != nil {
			return "", err
		}
		buf.WriteString(s)
	}
	buf.WriteString("}\n\n")
	return buf.String(), nil
}

// Emit lowers progs into a single C (or CUDA) translation unit plus its
// header, per rec/lay.
func Emit(rec *ir.Record, lay *layout.Layout, progs *synth.Programs) (*Artifact, error) {
	prec := precisionType(rec.Precision)
	offT := offsetType(lay)
	inputCount := rec.Input.Size
	outputCount := rec.Output.Size

	var body bytes.Buffer
	body.WriteString(header(rec))

	initSrc, err := lowerProgram("_initialize_", progs.Initialize, prec, offT, lay.Unit, inputCount, outputCount, "")
	if err != nil {
		return nil, err
	}
	actSrc, err := lowerProgramActivate(progs.Activate, prec, offT, lay.Unit)
	if err != nil {
		return nil, err
	}
	trainSrc, err := lowerProgram("_backprop_internal_", progs.Backprop, prec, offT, lay.Unit, inputCount, outputCount, fmt.Sprintf(", const %s *y", prec))
	if err != nil {
		return nil, err
	}
	batchSrc, err := lowerProgram("_train_", progs.Train, prec, offT, lay.Unit, inputCount, outputCount, fmt.Sprintf(", const %s *x, const %s *y", prec, prec))
	if err != nil {
		return nil, err
	}

	body.WriteString(initSrc)
	body.WriteString(actSrc)
	body.WriteString(trainSrc)
	body.WriteString(batchSrc)
	body.WriteString(exportedWrappers(rec, lay))

	ext := "c"
	if rec.CUDA.IsTrue() {
		ext = "cu"
	}

	return &Artifact{
		Module:    rec.Module,
		SourceExt: ext,
		Source:    normalize(body.String()),
		Header:    normalize(headerFile(rec)),
	}, nil
}

func lowerProgramActivate(prog synth.Program, prec, offT string, unit uint64) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "static const %s *\n_activate_(unsigned char *arena, const %s *x)\n{\n", prec, prec)
	for _, inst := range prog {
		s, err := lowerInst(inst, prec, offT, unit, 0, 0)
		if err != nil {
			return "", err
		}
		buf.WriteString(s)
	}
	buf.WriteString("}\n\n")
	return buf.String(), nil
}

func header(rec *ir.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* Auto-Generated: do not edit. Module %q. */\n", rec.Module)
	b.WriteString("#include <stdint.h>\n#include <stdlib.h>\n#include <string.h>\n#include <math.h>\n\n")
	return b.String()
}

func headerFile(rec *ir.Record) string {
	guard := strings.ToUpper(rec.Module) + "_H_"
	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString("#include <stdint.h>\n\n#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
	fmt.Fprintf(&b, "int %sversion(void);\n", rec.Prefix)
	fmt.Fprintf(&b, "uint64_t %smemory_size(void);\n", rec.Prefix)
	fmt.Fprintf(&b, "uint64_t %smemory_hard(void);\n", rec.Prefix)
	fmt.Fprintf(&b, "void %sinitialize(unsigned char *arena);\n", rec.Prefix)
	fmt.Fprintf(&b, "const void *%sactivate(unsigned char *arena, const void *x);\n", rec.Prefix)
	fmt.Fprintf(&b, "void %strain(unsigned char *arena, const void *x, const void *y);\n", rec.Prefix)
	b.WriteString("\n#ifdef __cplusplus\n}\n#endif\n\n#endif\n")
	return b.String()
}

func exportedWrappers(rec *ir.Record, lay *layout.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "int\n%sversion(void)\n{\n\treturn %d;\n}\n\n", rec.Prefix, versionConst)
	fmt.Fprintf(&b, "uint64_t\n%smemory_size(void)\n{\n\treturn %dULL;\n}\n\n", rec.Prefix, lay.MemorySize)
	fmt.Fprintf(&b, "uint64_t\n%smemory_hard(void)\n{\n\treturn %dULL;\n}\n\n", rec.Prefix, lay.MemoryHard)
	fmt.Fprintf(&b, "void\n%sinitialize(unsigned char *arena)\n{\n\t_initialize_(arena);\n}\n\n", rec.Prefix)
	prec := precisionType(rec.Precision)
	fmt.Fprintf(&b, "const void *\n%sactivate(unsigned char *arena, const void *x)\n{\n\treturn _activate_(arena, (const %s *)x);\n}\n\n", rec.Prefix, prec)
	fmt.Fprintf(&b, "void\n%strain(unsigned char *arena, const void *x, const void *y)\n{\n\t_train_(arena, (const %s *)x, (const %s *)y);\n}\n\n", rec.Prefix, prec, prec)
	return b.String()
}

// versionConst is the compiler version embedded in every generated
// module. It is also what the Facade's Version() returns.
const versionConst = 10

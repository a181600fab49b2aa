package dsl

import (
	"fmt"
	"strings"
)

// HiddenSpec is one hidden-layer declaration as passed across the Facade
// API.
type HiddenSpec struct {
	Size       uint64
	Activation string
}

// Render builds DSL source text for one network: nine fixed directive
// lines, with one .hidden line per hidden layer between .input and
// .output. The grammar carries no layer names, so any name a
// caller attached at the Facade boundary is not represented here.
func Render(module, prefix, optimizer, precision, costFn string, batch uint64, inputSize uint64, hidden []HiddenSpec, outputSize uint64, outputActivation string, cuda bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, ".module %s ;\n", module)
	fmt.Fprintf(&b, ".prefix %s ;\n", prefix)
	fmt.Fprintf(&b, ".optimizer %s ;\n", optimizer)
	fmt.Fprintf(&b, ".precision %s ;\n", precision)
	fmt.Fprintf(&b, ".costfnc %s ;\n", costFn)
	fmt.Fprintf(&b, ".batch %d ;\n", batch)
	fmt.Fprintf(&b, ".input %d ;\n", inputSize)
	for _, h := range hidden {
		fmt.Fprintf(&b, ".hidden %d %s ;\n", h.Size, h.Activation)
	}
	fmt.Fprintf(&b, ".output %d %s ;\n", outputSize, outputActivation)
	fmt.Fprintf(&b, ".cuda %t ;\n", cuda)
	return b.String()
}

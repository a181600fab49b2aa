// Package dsl implements the front end: a small, line-oriented parser
// for the network description language (one directive per line, each
// terminated with a semicolon), translating directives directly into
// ir.Builder calls. This grammar is small enough to parse in one pass,
// unlike a comment-directive extraction problem spread across several
// scanning files.
package dsl

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/annc-dev/annc/internal/ir"
	"github.com/annc-dev/annc/internal/xerrors"
)

// Parse reads DSL source text and returns the finalized ir.Record.
func Parse(source string) (*ir.Record, error) {
	b := ir.New()
	defer b.Destroy()

	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyLine(b, line); err != nil {
			return nil, xerrors.New(xerrors.Syntax, "dsl.Parse", lineErr(lineNo), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.New(xerrors.File, "dsl.Parse", "could not read source", err)
	}
	return b.Finalize()
}

func lineErr(n int) string {
	return "line " + strconv.Itoa(n)
}

func applyLine(b *ir.Builder, line string) error {
	line = strings.TrimSuffix(strings.TrimSpace(line), ";")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return xerrors.New(xerrors.Syntax, "dsl.applyLine", "empty directive", nil)
	}

	directive := strings.ToLower(fields[0])
	args := fields[1:]

	switch directive {
	case ".module":
		return expect(args, 1, func() error { return b.Module(args[0]) })
	case ".prefix":
		if len(args) == 0 {
			return b.Prefix("")
		}
		return expect(args, 1, func() error { return b.Prefix(args[0]) })
	case ".optimizer":
		if len(args) < 1 || len(args) > 2 {
			return xerrors.New(xerrors.Syntax, "dsl.applyLine", "wrong number of arguments", nil)
		}
		rate := -1.0
		if len(args) == 2 {
			r, err := parseFloat(args[1])
			if err != nil {
				return err
			}
			rate = r
		}
		return b.Optimizer(strings.ToLower(args[0]), rate)
	case ".precision":
		return expect(args, 1, func() error { return b.Precision(strings.ToLower(args[0])) })
	case ".costfnc":
		return expect(args, 1, func() error { return b.CostFn(strings.ToLower(args[0])) })
	case ".batch":
		return expect(args, 1, func() error {
			n, err := parseUint(args[0])
			if err != nil {
				return err
			}
			return b.Batch(n)
		})
	case ".input":
		return expect(args, 1, func() error {
			n, err := parseUint(args[0])
			if err != nil {
				return err
			}
			return b.Input(n)
		})
	case ".hidden":
		return expect(args, 2, func() error {
			n, err := parseUint(args[0])
			if err != nil {
				return err
			}
			act, err := parseActivation(strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			return b.Hidden(n, act)
		})
	case ".output":
		return expect(args, 2, func() error {
			n, err := parseUint(args[0])
			if err != nil {
				return err
			}
			act, err := parseActivation(strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			return b.Output(n, act)
		})
	case ".cuda":
		return expect(args, 1, func() error {
			on, err := strconv.ParseBool(args[0])
			if err != nil {
				return xerrors.New(xerrors.Syntax, "dsl.applyLine", "invalid .cuda argument", err)
			}
			return b.CUDA(on)
		})
	default:
		return xerrors.New(xerrors.Syntax, "dsl.applyLine", "unknown directive: "+directive, nil)
	}
}

func expect(args []string, n int, fn func() error) error {
	if len(args) != n {
		return xerrors.New(xerrors.Syntax, "dsl.applyLine", "wrong number of arguments", nil)
	}
	return fn()
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.New(xerrors.Syntax, "dsl.parseUint", "expected an unsigned integer", err)
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, xerrors.New(xerrors.Syntax, "dsl.parseFloat", "expected a floating-point number", err)
	}
	return f, nil
}

func parseActivation(s string) (ir.Activation, error) {
	switch s {
	case "relu":
		return ir.Relu, nil
	case "linear":
		return ir.Linear, nil
	case "softmax":
		return ir.Softmax, nil
	case "sigmoid":
		return ir.Sigmoid, nil
	default:
		return 0, xerrors.New(xerrors.Syntax, "dsl.parseActivation", "unknown activation: "+s, nil)
	}
}

package jit

import (
	"context"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/internal/xerrors"
)

// ccFlags is the fixed argv used to compile every generated translation
// unit: -ansi -pedantic -Wshadow -Wall -Wextra -Werror -Wfatal-errors
// -fPIC -O3 -shared <in> -o <out>.
var ccFlags = []string{
	"-ansi", "-pedantic", "-Wshadow", "-Wall", "-Wextra",
	"-Werror", "-Wfatal-errors", "-fPIC", "-O3", "-shared",
}

// toolchain returns the C compiler to invoke: $CC if set, else "cc".
func toolchain() string {
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

// compile builds src (a .c or .cu file) into the shared object out.
func compile(ctx context.Context, src, out string) error {
	args := make([]string, 0, len(ccFlags)+3)
	args = append(args, ccFlags...)
	args = append(args, src, "-o", out)

	cc := toolchain()
	logrus.WithFields(logrus.Fields{"cc": cc, "src": src, "out": out}).Debug("jit: invoking native toolchain")

	cmd := exec.CommandContext(ctx, cc, args...)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return xerrors.New(xerrors.Jitc, "jit.compile", "native toolchain failed", err)
	}
	return nil
}

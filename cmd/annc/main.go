// Command annc is the compiler's command-line front end: compile a
// network description to native source, or build-load-run it directly
// for a quick smoke test.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/internal/xerrors"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*xerrors.Error); ok {
				logrus.WithField("kind", e.Kind).Error(e.Error())
				os.Exit(int(e.Kind) * -1)
			}
			fmt.Fprintln(os.Stderr, "internal error:", r)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

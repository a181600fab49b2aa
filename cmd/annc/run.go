package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annc-dev/annc/internal/dsl"
	"github.com/annc-dev/annc/internal/emit"
	"github.com/annc-dev/annc/internal/jit"
	"github.com/annc-dev/annc/internal/layout"
	"github.com/annc-dev/annc/internal/synth"
)

// newRunCmd is a smoke-testing convenience, not part of the Facade
// contract: it compiles, builds, loads, and initializes a network
// description file, then reports its memory totals, without requiring a
// caller to write a harness program against the annc package.
func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <spec-file>",
		Short: "Compile, build, load, and initialize a network description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(flags); err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rec, err := dsl.Parse(string(source))
			if err != nil {
				return err
			}
			lay, err := layout.Plan(rec)
			if err != nil {
				return err
			}
			progs, err := synth.Synthesize(rec, lay)
			if err != nil {
				return err
			}
			art, err := emit.Emit(rec, lay, progs)
			if err != nil {
				return err
			}

			handle, err := jit.Build(context.Background(), &jit.Artifact{
				Module:    art.Module,
				SourceExt: art.SourceExt,
				Source:    art.Source,
				Header:    art.Header,
			})
			if err != nil {
				return err
			}
			defer handle.Close()

			size := handle.MemorySize()
			hard := handle.MemoryHard()
			arena := jit.MallocArena(size)
			if arena == nil {
				return fmt.Errorf("could not allocate %d-byte arena", size)
			}
			defer jit.FreeArena(arena)

			handle.Initialize(arena)

			fmt.Fprintf(cmd.OutOrStdout(), "version=%d memory_size=%d memory_hard=%d\n",
				handle.Version(), size, hard)
			return nil
		},
	}
}

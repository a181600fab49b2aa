package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/annc-dev/annc/internal/dsl"
	"github.com/annc-dev/annc/internal/emit"
	"github.com/annc-dev/annc/internal/layout"
	"github.com/annc-dev/annc/internal/synth"
)

func newCompileCmd(flags *rootFlags) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "compile <spec-file>",
		Short: "Compile a network description to native source, without building it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.OutDir
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

			srcPath := filepath.Join(outDir, art.Module+"."+art.SourceExt)
			hdrPath := filepath.Join(outDir, art.Module+".h")
			if err := os.WriteFile(srcPath, []byte(art.Source), 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(hdrPath, []byte(art.Header), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", srcPath, hdrPath)
			fmt.Fprintf(cmd.OutOrStdout(), "memory_size=%d memory_hard=%d\n", lay.MemorySize, lay.MemoryHard)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory to write generated source into (default: config out_dir)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annc-dev/annc"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compiler version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), annc.Version())
			return nil
		},
	}
}

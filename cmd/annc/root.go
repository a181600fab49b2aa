package main

import (
	"github.com/spf13/cobra"

	"github.com/annc-dev/annc/internal/config"
)

type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "annc",
		Short:         "annc compiles feed-forward network descriptions to native code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCompileCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	return cmd
}

// loadConfig applies, in increasing priority, built-in defaults, an
// optional config file, environment variables, then flags.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		fileCfg, err := config.Load(flags.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(config.FromEnvironment())
	if flags.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.ApplyLogging(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xiexikang/video-link-pipeline/internal/config"
)

// commandContext carries the config path flag and the lazily-loaded
// configuration shared by all subcommands.
type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	cfg    *config.Config
	logger *slog.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// log builds the process logger. Logs go to stderr so stdout stays clean
// for --json output.
func (c *commandContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	level := slog.LevelInfo
	if c.verboseFlag != nil && *c.verboseFlag {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return c.logger
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := &commandContext{configFlag: &configFlag, verboseFlag: &verboseFlag}

	rootCmd := &cobra.Command{
		Use:           "vlp",
		Short:         "Resilient short-video acquisition pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}

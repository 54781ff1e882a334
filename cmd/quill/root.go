package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill sends selected text to an AI service and writes the result back",
	Long: `Quill applies AI transformations (rewrite, summarize, grammar) to a selected
span of text. It ships the transformation service, a command-line client and
an MCP server for agents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (yaml, json or toml; default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle tracing")
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		level, _ = cmd.Flags().GetString("log-level")
	}
	debug, _ := cmd.Flags().GetBool("debug")

	logger, err := cli.CreateLogger(level, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

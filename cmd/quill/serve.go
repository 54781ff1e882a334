package main

import (
	"context"

	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transformation service",
	Long: `Starts the HTTP transformation service. It accepts POST /api/ai with
{"action": ..., "text": ...} and answers {"result": ...}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("model") {
			cfg.Generator.Model, _ = cmd.Flags().GetString("model")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		tui.PrintBanner(cmd.ErrOrStderr())

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.RunServe(ctx, cfg, logger); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Info("Quill service stopped", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, \":8000\")")
	serveCmd.Flags().String("model", "", "Model used when requests do not name one")
}

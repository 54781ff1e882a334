package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the transformation actions as MCP tools backed by the service.
This allows AI agents to rewrite, summarize or fix text through Quill.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		endpoint, _ := cmd.Flags().GetString("endpoint")

		srv := mcp.NewServer(cli.CreateClient(cfg.Client, endpoint, logger), mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Logs must not corrupt JSON-RPC on stdout.
			log.SetOutput(os.Stderr)
			logger.Info("Starting Quill MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(context.Background())
			defer ctx.Cancel()

			logger.Info("Starting Quill MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		}
		return errors.New("unknown transport " + transport + ". Supported: stdio, sse")
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for the SSE transport")
	mcpCmd.Flags().String("endpoint", "", "Service endpoint (default from config)")
}

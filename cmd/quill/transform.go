package main

import (
	"context"
	"os"

	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/internal/presentation/tui"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/spf13/cobra"
)

var transformCmd = &cobra.Command{
	Use:   "transform <action> <file>",
	Short: "Transform a span of a file through the service",
	Long: `Sends the selected span of a file to the transformation service and prints
the result. Select with --match (first occurrence) or --from/--to (character
offsets). Without a selection the whole file is sent. --write saves the edited
document back into the file.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: actionNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		match, _ := cmd.Flags().GetString("match")
		mode, _ := cmd.Flags().GetString("mode")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		write, _ := cmd.Flags().GetBool("write")
		debug, _ := cmd.Flags().GetBool("debug")
		if cmd.Flags().Changed("detailed") {
			cfg.Client.DetailedNotices, _ = cmd.Flags().GetBool("detailed")
		}

		render := tui.PlainRenderer
		if tui.IsTerminal(os.Stdout) {
			render = tui.NewRenderer(tui.Width(os.Stdout, 80))
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.RunTransform(ctx, cfg, cli.TransformOptions{
			Action:   args[0],
			Path:     args[1],
			From:     from,
			To:       to,
			Match:    match,
			Mode:     mode,
			Endpoint: endpoint,
			Write:    write,
			Debug:    debug,
			Output:   cmd.OutOrStdout(),
			Status:   cmd.ErrOrStderr(),
			Render:   render,
		}, logger)
		if cli.IsInterrupted(err) {
			return nil
		}
		return err
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the supported transformation actions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range domain.Actions() {
			cmd.Printf("%-10s %s\n", a.String(), a.Label())
		}
	},
}

func actionNames() []string {
	names := make([]string, 0, len(domain.Actions()))
	for _, a := range domain.Actions() {
		names = append(names, a.String())
	}
	return names
}

func init() {
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(actionsCmd)
	transformCmd.Flags().Int("from", 0, "Start offset of the selection")
	transformCmd.Flags().Int("to", -1, "End offset of the selection (-1 for end of file)")
	transformCmd.Flags().String("match", "", "Select the first occurrence of this text")
	transformCmd.Flags().String("mode", "replace", "How the result is inserted: replace or append")
	transformCmd.Flags().String("endpoint", "", "Service endpoint (default from config)")
	transformCmd.Flags().BoolP("write", "w", false, "Write the edited document back into the file")
	transformCmd.Flags().Bool("detailed", false, "Name the failure kind in error notices")
}

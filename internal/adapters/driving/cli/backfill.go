package cli

import (
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Run one reconciliation sweep and exit",
	Long: `Polls every configured repository once, reconciling repository details,
commits, issues, and pull requests against the stored cursors, then exits.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close() //nolint:errcheck // best-effort close on exit

		return app.backfill.RunSweep(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

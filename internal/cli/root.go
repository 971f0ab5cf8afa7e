package cli

import (
	"github.com/spf13/cobra"

	"github.com/shiwake/reconciler/internal/config"
)

var version = "0.1.0"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Bank statement import and invoice matching",
		Long: `reconciler imports Japanese bank statements (CSV exports of the major
banks, or OFX) and matches incoming deposits against outstanding invoices.

Matched deposits can be committed as payment records. Re-importing the same
statement never records a payment twice.`,
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand(cfg))
	rootCmd.AddCommand(newImportCommand(cfg))

	return rootCmd
}

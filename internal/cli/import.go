package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shiwake/reconciler/internal/config"
	"github.com/shiwake/reconciler/internal/ingestion"
)

type importFlags struct {
	bank        string
	fileType    string
	company     string
	autoMatch   bool
	autoConfirm bool
	onlyHigh    bool
	save        bool
	keepDups    bool
}

func newImportCommand(cfg *config.Config) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement file",
		Long: `Parse a bank statement (CSV or OFX), optionally match its deposits against
outstanding invoices and record payments for the matches.`,
		Example: `  # Parse only
  reconciler import statement.csv

  # Match and record high confidence payments
  reconciler import statement.csv --bank sbi --auto-match --auto-confirm --only-high --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, cfg, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.bank, "bank", "auto", "bank CSV layout (auto, sbi, mufg, smbc, mizuho, rakuten, japan-post, sony, aeon)")
	cmd.Flags().StringVar(&f.fileType, "file-type", "", "force the file type (csv or ofx)")
	cmd.Flags().StringVar(&f.company, "company", "", "company the statement belongs to (default DEFAULT_COMPANY_ID)")
	cmd.Flags().BoolVar(&f.autoMatch, "auto-match", false, "match deposits against outstanding invoices")
	cmd.Flags().BoolVar(&f.autoConfirm, "auto-confirm", false, "record confirmed payments for matches")
	cmd.Flags().BoolVar(&f.onlyHigh, "only-high", false, "record payments for high confidence matches only")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the statement lines and the import history")
	cmd.Flags().BoolVar(&f.keepDups, "report-duplicates", false, "report already imported lines as errors instead of skipping them")

	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, path string, f importFlags) error {
	bank, ok := ingestion.ParseBankType(f.bank)
	if !ok {
		return fmt.Errorf("unsupported bank %q", f.bank)
	}
	company := f.company
	if company == "" {
		company = cfg.DefaultCompanyID
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}

	app, err := NewApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Importer.Import(cmd.Context(), data, ingestion.ImportOptions{
		CompanyID:          company,
		FileName:           filepath.Base(path),
		FileType:           f.fileType,
		BankType:           bank,
		AutoMatch:          f.autoMatch,
		AutoConfirm:        f.autoConfirm,
		OnlyHighConfidence: f.onlyHigh,
		SkipDuplicates:     !f.keepDups,
		SaveTransactions:   f.save,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), HumanSummary(res))
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neetprep/backend/internal/app"
	"github.com/neetprep/backend/internal/importer"
	"github.com/neetprep/backend/internal/store"
)

var (
	importSheet    string
	importStartRow int
	exportSubject  string
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import questions from a spreadsheet or CSV file",
	Long: `Columns (A..L): subject, chapter, topic, difficulty, text, options A-D,
correct option, ideal time in seconds, explanation. Rows that fail validation
are listed and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			cfg := importer.DefaultConfig()
			cfg.SheetName = importSheet
			if importStartRow > 0 {
				cfg.StartRow = importStartRow
			}

			res, err := importer.ImportFile(ctx, a.Store, args[0], cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed %d rows, imported %d questions\n", res.TotalProcessed, res.Imported)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Err)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export the question bank to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := a.Bank.Export(ctx, f, store.QuestionFilter{Subject: exportSubject}); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		})
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Sheet name (default: first sheet)")
	importCmd.Flags().IntVar(&importStartRow, "start-row", 0, "First data row, 1-based (default: 2)")
	exportCmd.Flags().StringVar(&exportSubject, "subject", "", "Only export this subject")
}

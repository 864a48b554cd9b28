package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"recordstore/internal/service"
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import records from CSV files",
	Long: `Import records from CSV files with an id,name,age,gender header row.

Rows whose id already exists in the store and rows that fail to parse
are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		importService := service.NewImportService(engine)
		for _, path := range args {
			if _, err := importService.ProcessCSV(path); err != nil {
				return err
			}

			progress := importService.FileProgress(filepath.Base(path))
			if progress == nil {
				continue
			}
			cmd.Printf("%s: %d rows, %d skipped\n",
				progress.FileName, progress.TotalRecords, progress.Skipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"recordstore/internal/service"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled sample records",
	Long: `Load the bundled sample records into the store. Seeding is a no-op
when the store already has rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		inserted, err := service.NewRecordService(engine).Seed()
		if err != nil {
			return err
		}
		if inserted == 0 {
			cmd.Println("store already has records, nothing seeded")
			return nil
		}
		cmd.Printf("seeded %d records\n", inserted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

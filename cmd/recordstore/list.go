package main

import (
	"github.com/spf13/cobra"

	"recordstore/internal/database"
	"recordstore/internal/model"
	"recordstore/internal/query"
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, optionally filtered and sorted",
	Long: `List records from the store.

Filters combine with AND:
  recordstore list --gender M --older-than 21
  recordstore list --name-like "J%" --sort age --desc --limit 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		nameLike, _ := cmd.Flags().GetString("name-like")
		gender, _ := cmd.Flags().GetString("gender")
		olderThan, _ := cmd.Flags().GetInt("older-than")
		youngerThan, _ := cmd.Flags().GetInt("younger-than")
		sortBy, _ := cmd.Flags().GetString("sort")
		desc, _ := cmd.Flags().GetBool("desc")
		limit, _ := cmd.Flags().GetInt("limit")

		var parts []*query.Predicate
		if nameLike != "" {
			parts = append(parts, query.Like("name", nameLike))
		}
		if gender != "" {
			parts = append(parts, query.Eq("gender", gender))
		}
		if cmd.Flags().Changed("older-than") {
			parts = append(parts, query.Gt("age", olderThan))
		}
		if cmd.Flags().Changed("younger-than") {
			parts = append(parts, query.Lt("age", youngerThan))
		}

		sess := engine.NewSession()
		defer sess.Close()

		recs, err := listRecords(sess, parts, sortBy, desc, limit)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			cmd.Println(rec.String())
		}
		return nil
	},
}

// listRecords folds the filter parts into one predicate and runs the
// combined query.
func listRecords(sess *database.Session, parts []*query.Predicate, sortBy string, desc bool, limit int) ([]model.Record, error) {
	var pred *query.Predicate
	switch len(parts) {
	case 0:
	case 1:
		pred = parts[0]
	default:
		pred = query.And(parts...)
	}
	return sess.Select(pred, sortBy, desc, limit)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("name-like", "", "Match names against a LIKE pattern (use % as wildcard)")
	listCmd.Flags().String("gender", "", "Match gender exactly")
	listCmd.Flags().Int("older-than", 0, "Only records with a greater age")
	listCmd.Flags().Int("younger-than", 0, "Only records with a smaller age")
	listCmd.Flags().String("sort", "", "Column to sort by")
	listCmd.Flags().Bool("desc", false, "Sort descending")
	listCmd.Flags().Int("limit", 0, "Maximum rows to return (0 = all)")
}

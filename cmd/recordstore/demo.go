package main

import (
	"github.com/spf13/cobra"

	"recordstore/internal/model"
	"recordstore/internal/query"
)

// demoCmd represents the demo command.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a guided walkthrough of the store operations",
	Long: `Run a guided walkthrough against the configured store: insert the
sample records, update and delete through a session, and show filtered,
combined and sorted queries. The store is reset first, so point the
demo at a scratch file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		printAll := func(title string) error {
			sess := engine.NewSession()
			defer sess.Close()
			recs, err := sess.All()
			if err != nil {
				return err
			}
			cmd.Printf("--- %s\n", title)
			for _, rec := range recs {
				cmd.Println("   ", rec.String())
			}
			return nil
		}
		printMatches := func(title string, pred *query.Predicate) error {
			sess := engine.NewSession()
			defer sess.Close()
			recs, err := sess.Find(pred)
			if err != nil {
				return err
			}
			cmd.Printf("--- %s\n", title)
			for _, rec := range recs {
				cmd.Println("   ", rec.String())
			}
			return nil
		}

		// Reset so repeated runs start from the same rows.
		sess := engine.NewSession()
		existing, err := sess.All()
		if err != nil {
			return err
		}
		for i := range existing {
			if err := sess.Delete(&existing[i]); err != nil {
				return err
			}
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		sess.Close()

		sess = engine.NewSession()
		if err := sess.Insert(model.SampleRecords()...); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		sess.Close()
		if err := printAll("inserted sample records"); err != nil {
			return err
		}

		// Update one record through a session.
		sess = engine.NewSession()
		jay, err := sess.First("name", "Jay Mondal")
		if err != nil {
			return err
		}
		if err := sess.Update(jay, "age", 23); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		sess.Close()
		if err := printAll("set Jay Mondal's age to 23"); err != nil {
			return err
		}

		// Staged changes vanish on rollback.
		sess = engine.NewSession()
		if err := sess.Update(jay, "age", 99); err != nil {
			return err
		}
		if err := sess.Rollback(); err != nil {
			return err
		}
		sess.Close()
		if err := printAll("rolled back a staged age of 99"); err != nil {
			return err
		}

		// Bulk update across every row.
		sess = engine.NewSession()
		if err := sess.Increment(nil, "age", 1); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		sess.Close()
		if err := printAll("incremented every age by 1"); err != nil {
			return err
		}

		// Delete one record.
		sess = engine.NewSession()
		dipanjan, err := sess.First("name", "Dipanjan Mondal")
		if err != nil {
			return err
		}
		if err := sess.Delete(dipanjan); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		sess.Close()
		if err := printAll("deleted Dipanjan Mondal"); err != nil {
			return err
		}

		if err := printMatches("age over 22", query.Gt("age", 22)); err != nil {
			return err
		}
		if err := printMatches("names starting with J", query.Like("name", "J%")); err != nil {
			return err
		}
		if err := printMatches("male or younger than 22",
			query.Or(query.Eq("gender", "M"), query.Lt("age", 22))); err != nil {
			return err
		}

		sess = engine.NewSession()
		top, err := sess.Sorted("age", true, 3)
		if err != nil {
			return err
		}
		sess.Close()
		cmd.Println("--- top 3 by age")
		for _, rec := range top {
			cmd.Println("   ", rec.String())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

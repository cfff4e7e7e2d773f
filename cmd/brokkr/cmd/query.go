/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/index"
	"github.com/ssargent/brokkr/pkg/query"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Query a table with a column predicate",
	Long: `Run a single column predicate against a table and print matching
rows in insertion order. Predicates have the form "column op value"
with op one of =, !=, <, <=, > or >=; string values take double
quotes.

Examples:
  brokkr query players --where "hp >= 50"
  brokkr query players --where 'name = "Alice"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		where, _ := cmd.Flags().GetString("where")

		q, err := query.ParseWhere(where)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		schema, err := st.Schema(args[0])
		if err != nil {
			return err
		}

		engine := query.NewEngine(index.NewManager(st), st)
		iter, err := engine.Execute(cmd.Context(), args[0], q)
		if err != nil {
			return err
		}
		defer iter.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprint(w, "SEQ")
		for _, col := range schema.Columns {
			fmt.Fprintf(w, "\t%s", col.Name)
		}
		fmt.Fprintln(w)

		matches := 0
		for iter.Next() {
			result := iter.Result()
			fmt.Fprintf(w, "%d", result.Seq)
			for _, value := range result.Row {
				fmt.Fprintf(w, "\t%v", value)
			}
			fmt.Fprintln(w)
			matches++
		}
		fmt.Fprintf(w, "\n%d rows\n", matches)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().String("where", "", `Predicate, e.g. "hp >= 50" (required)`)
	if err := queryCmd.MarkFlagRequired("where"); err != nil {
		panic(err)
	}
}

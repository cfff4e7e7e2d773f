/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/layout"
)

// tableOutline is the JSON shape of one inspected table.
type tableOutline struct {
	Name     string           `json:"name"`
	Count    int              `json:"count"`
	Sections []sectionOutline `json:"sections"`
	Columns  []columnOutline  `json:"columns"`
}

type sectionOutline struct {
	Offset int64 `json:"offset"`
	Total  int   `json:"total"`
	Fields int   `json:"fields"`
}

type columnOutline struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Length  int    `json:"length"`
	Section int    `json:"section"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <layout>",
	Short: "Show the tables and columns a layout declares",
	Long: `Parse a layout file and print its tables, sections and row schema
without touching any binary file or the store.

Example:
  brokkr inspect savegame.layout --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		spec, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}

		outlines := make([]tableOutline, 0, spec.Len())
		for _, table := range spec.Tables() {
			outline := tableOutline{Name: table.Name, Count: table.Count}
			for _, sec := range table.Sections {
				outline.Sections = append(outline.Sections, sectionOutline{
					Offset: sec.Offset,
					Total:  sec.Total,
					Fields: len(sec.Fields),
				})
			}
			for _, col := range table.RowSchema() {
				outline.Columns = append(outline.Columns, columnOutline{
					Name:    col.Name,
					Type:    col.Type,
					Length:  col.Length,
					Section: col.Section,
				})
			}
			outlines = append(outlines, outline)
		}

		if format == "json" {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(outlines)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		for _, outline := range outlines {
			fmt.Fprintf(w, "Table:\t%s\n", outline.Name)
			fmt.Fprintf(w, "Rows:\t%d\n", outline.Count)
			for i, sec := range outline.Sections {
				fmt.Fprintf(w, "Section %d:\toffset 0x%x, %d bytes/record, %d fields\n",
					i, sec.Offset, sec.Total, sec.Fields)
			}
			fmt.Fprintln(w, "COLUMN\tTYPE\tBYTES\tSECTION")
			for _, col := range outline.Columns {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", col.Name, col.Type, col.Length, col.Section)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("format", "table", "Output format (table or json)")
}

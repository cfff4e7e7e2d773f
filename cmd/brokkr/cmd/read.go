/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/brokkr/pkg/binfile"
	"github.com/ssargent/brokkr/pkg/layout"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <layout> <binary>",
	Short: "Import a binary file into the record store",
	Long: `Read a binary file according to a layout and load its tables into
the record store. Rows append to existing tables unless --replace is
given, which truncates each table first.

Example:
  brokkr read savegame.layout save001.sav --replace`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		spec, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}
		fc, err := fieldCodec()
		if err != nil {
			return err
		}

		src, err := binfile.Open(args[1])
		if err != nil {
			return err
		}
		defer src.Close()

		rows, err := binfile.NewReader(fc).Read(spec, src, cfg.FileOffset)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		for _, table := range spec.Tables() {
			if err := st.EnsureTable(table.Name, table.RowSchema()); err != nil {
				return err
			}
			if replace {
				if err := st.Truncate(table.Name); err != nil {
					return err
				}
			}
			if err := st.InsertRows(table.Name, columnNames(table), rows[table.Name]); err != nil {
				return err
			}
			cmd.Printf("Imported %d rows into %s\n", len(rows[table.Name]), table.Name)
		}
		logger.Info("import complete",
			zap.String("layout", args[0]),
			zap.String("binary", args[1]),
			zap.Int("tables", spec.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("replace", false, "Truncate each table before importing")
}

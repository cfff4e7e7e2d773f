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

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <layout> <binary>",
	Short: "Write store rows back into a binary file",
	Long: `Write the rows of every table the layout declares back into an
existing binary file at their original offsets. The file is patched in
place and never extended; bytes outside the layout's sections are left
untouched.

Each table must hold exactly the row count the layout declares. Import
the file first (brokkr read) or trim the store to match.

Example:
  brokkr write savegame.layout save001.sav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}
		fc, err := fieldCodec()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rows := make(map[string][]layout.Row, spec.Len())
		for _, table := range spec.Tables() {
			r, err := st.SelectAll(table.Name, columnNames(table))
			if err != nil {
				return err
			}
			if len(r) != table.Count {
				return fmt.Errorf("table %s holds %d rows, layout declares %d",
					table.Name, len(r), table.Count)
			}
			rows[table.Name] = r
		}

		f, err := binfile.OpenRW(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := binfile.NewWriter(fc).Write(spec, rows, f, cfg.FileOffset); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}

		for _, table := range spec.Tables() {
			cmd.Printf("Wrote %d rows of %s\n", table.Count, table.Name)
		}
		logger.Info("write-back complete",
			zap.String("layout", args[0]),
			zap.String("binary", args[1]),
			zap.Int("tables", spec.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}

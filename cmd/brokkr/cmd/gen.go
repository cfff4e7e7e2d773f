/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/gen"
	"github.com/ssargent/brokkr/pkg/layout"
)

// genCmd represents the gen command
var genCmd = &cobra.Command{
	Use:   "gen <layout>",
	Short: "Generate table and column constants from a layout",
	Long: `Generate a Go source file with typed constants for every table and
column the layout declares, so code addressing rows by position stays
in sync with the layout.

Example:
  brokkr gen savegame.layout -o savegame/consts.go --package savegame`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		pkgName, _ := cmd.Flags().GetString("package")

		spec, err := layout.ParseFile(args[0])
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return gen.Generate(w, spec, pkgName)
	},
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	genCmd.Flags().String("package", "", "Package name for the generated file")
}

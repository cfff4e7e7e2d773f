/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with a generated API key",
	Long: `Write a configuration file with defaults and a freshly generated
API key. The key protects the REST API started by 'brokkr serve'.

Examples:
  brokkr init
  brokkr init --config ./brokkr.yaml --store ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(path) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", path)
			return nil
		}

		created, err := config.BootstrapConfig(path, cfg.StoreDir)
		if err != nil {
			return err
		}

		cmd.Printf("Config written to %s\n", path)
		cmd.Printf("Store directory: %s\n", created.StoreDir)
		cmd.Printf("API key: %s\n", created.API.Key)
		cmd.Printf("\nStart the server with:\n  brokkr serve --config %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

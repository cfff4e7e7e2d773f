/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/brokkr/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the read-only REST API server over the record store. All
/api/v1 routes require the configured API key in the X-API-Key header;
Prometheus metrics stay open on /metrics.

Examples:
  brokkr serve
  brokkr serve --port 9000 --api-key mysecretkey`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.API.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.API.Key, _ = cmd.Flags().GetString("api-key")
		}
		if cfg.API.Key == "" || cfg.API.Key == "auto" {
			return fmt.Errorf("no API key configured: run 'brokkr init' or pass --api-key")
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return api.StartServer(st, api.ServerConfig{
			Port:   cfg.API.Port,
			Bind:   cfg.API.Bind,
			APIKey: cfg.API.Key,
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Bind address")
	serveCmd.Flags().String("api-key", "", "API key for authentication")
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/brokkr/pkg/codec"
	"github.com/ssargent/brokkr/pkg/config"
	"github.com/ssargent/brokkr/pkg/layout"
	"github.com/ssargent/brokkr/pkg/store"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brokkr",
	Short: "Brokkr - Binary layout converter",
	Long: `Brokkr converts fixed binary file formats to and from a relational
record store, driven by a declarative layout file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.DefaultConfig()

		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(path) {
			loaded, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			cfg = loaded
		} else if cfgFile != "" && cmd.Name() != "init" {
			// init is the command that creates the file
			return fmt.Errorf("config file does not exist: %s", cfgFile)
		}

		// Flags override the config file.
		if cmd.Flags().Changed("store") {
			cfg.StoreDir, _ = cmd.Flags().GetString("store")
		}
		if cmd.Flags().Changed("byte-order") {
			cfg.ByteOrder, _ = cmd.Flags().GetString("byte-order")
		}
		if cmd.Flags().Changed("encoding") {
			cfg.Encoding, _ = cmd.Flags().GetString("encoding")
		}
		if cmd.Flags().Changed("file-offset") {
			cfg.FileOffset, _ = cmd.Flags().GetInt64("file-offset")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
		}

		var err error
		logger, err = buildLogger(cfg.Logging.Level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/brokkr/config.yaml)")
	rootCmd.PersistentFlags().StringP("store", "s", "./data", "Record store directory")
	rootCmd.PersistentFlags().String("byte-order", "little", "Byte order of integer fields (little or big)")
	rootCmd.PersistentFlags().String("encoding", "utf-8", "Text encoding of string fields (IANA name)")
	rootCmd.PersistentFlags().Int64("file-offset", 0, "Constant bias added to every section offset")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// buildLogger builds a console logger at the configured level, writing
// to stderr so command output on stdout stays machine-readable.
func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl)
	return zap.New(core), nil
}

// fieldCodec builds the field codec from the effective configuration.
func fieldCodec() (*codec.FieldCodec, error) {
	return codec.NewFieldCodec(cfg.ByteOrder, cfg.Encoding)
}

// openStore opens the record store at the configured directory.
func openStore() (*store.PebbleStore, error) {
	return store.NewPebbleStore(store.PebbleStoreConfig{
		Path:   cfg.StoreDir,
		Logger: logger,
	})
}

// columnNames returns the table's row schema column names in order.
func columnNames(table *layout.Table) []string {
	schema := table.RowSchema()
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.Name
	}
	return names
}

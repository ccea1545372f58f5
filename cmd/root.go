// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for TenantForge.
// It implements subcommands for executing SQL across tenant databases, managing
// projects of saved connections and serving the executor over gRPC and HTTP,
// using the Cobra CLI framework.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tenantforge/cli/internal/config"
	"tenantforge/cli/internal/logging"
)

var (
	showVersion bool
	configPath  string
	envFile     string
	verbose     bool

	cfg    config.Config
	logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "tenantforge",
	Short:         "Run one SQL script against many tenant databases",
	Long:          `TenantForge executes a SQL script on a list of PostgreSQL tenant connections and reports one result per connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing default .env is fine, a missing explicit one is not
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		l, err := logging.New(level, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(logging.Mask(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default $XDG_CONFIG_HOME/tenantforge/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

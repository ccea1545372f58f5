// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tenantforge/cli/internal/sqlexec"
)

var (
	classifySQL    string
	classifyFile   string
	classifyMode   string
	classifyOutput string
)

// classifyCmd shows the execution strategy exec would pick, without connecting anywhere.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show how a SQL script would be executed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(classifyOutput); err != nil {
			return err
		}
		sql, err := readSQL(classifySQL, classifyFile)
		if err != nil {
			return err
		}
		modeName := cfg.Classifier
		if classifyMode != "" {
			modeName = classifyMode
		}
		mode, err := sqlexec.ParseClassifierMode(modeName)
		if err != nil {
			return err
		}

		d := sqlexec.Classifier{Mode: mode}.Classify(sql)
		if classifyOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), d)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Execution mode: %s\nReason: %s\n", describeDecision(d), d.Reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifySQL, "sql", "s", "", "SQL text to classify")
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "File with SQL to classify (- for stdin)")
	classifyCmd.Flags().StringVar(&classifyMode, "mode", "", "Classifier: lexical or substring (default from config)")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", outputTable, "Output format: table or json")
}

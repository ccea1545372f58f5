// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"tenantforge/cli/internal/sqlexec"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table or json)", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func describeDecision(d sqlexec.Decision) string {
	if !d.RequiresBatch {
		return "simple (single statement)"
	}
	return "batch in transaction (" + d.Reason.Label() + ")"
}

// renderReport prints one row per connection followed by the summary.
func renderReport(w io.Writer, r *sqlexec.Report, format string) error {
	if format == outputJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "Execution mode: %s\n\n", describeDecision(r.Decision))

	data := pterm.TableData{{"Connection", "Status", "Message"}}
	for _, res := range r.Results {
		status := pterm.Green("ok")
		if !res.Success {
			status = pterm.Red("failed")
		}
		data = append(data, []string{res.ConnectionID, status, oneLine(res.Message)})
	}
	if len(r.Results) > 0 {
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, table)
	}

	fmt.Fprintln(w, summaryLine(r.Summary))
	return nil
}

func summaryLine(s sqlexec.Summary) string {
	line := fmt.Sprintf("%d total, %d succeeded, %d failed", s.Total, s.Succeeded, s.Failed)
	if s.Failed > 0 {
		return pterm.Yellow(line)
	}
	return pterm.Green(line)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

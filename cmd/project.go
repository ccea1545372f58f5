// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/logging"
	"tenantforge/cli/internal/terminal"
)

var (
	projectDescription string
	projectTags        []string
	projectOutput      string
	projectConnFile    string
	projectKeychain    bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage saved projects of tenant connections",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [NAME]",
	Short: "Create a project",
	Long:  "Create a project. Without NAME the name is read from an interactive prompt.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			if !terminal.IsInteractive() {
				return fmt.Errorf("project name required: tenantforge project create NAME")
			}
			line, err := terminal.ReadLine("Project name: ")
			if err != nil {
				return fmt.Errorf("failed to read project name: %w", err)
			}
			name = strings.TrimSpace(line)
		}
		svc, err := openProjects()
		if err != nil {
			return err
		}
		p, err := svc.Create(name, projectDescription, projectTags)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Created project %d (%s)\n", p.ID, p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(projectOutput); err != nil {
			return err
		}
		svc, err := openProjects()
		if err != nil {
			return err
		}
		list, err := svc.List()
		if err != nil {
			return err
		}
		if projectOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No projects yet. Create one with: tenantforge project create NAME")
			return nil
		}

		data := pterm.TableData{{"ID", "Name", "Tags", "Connections", "Updated"}}
		for _, p := range list {
			data = append(data, []string{
				strconv.FormatInt(p.ID, 10),
				p.Name,
				strings.Join(p.Tags, ", "),
				strconv.Itoa(len(p.Connections)),
				humanize.Time(p.UpdatedAt),
			})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a project and its connections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		svc, err := openProjects()
		if err != nil {
			return err
		}
		p, err := svc.Get(id)
		if err != nil {
			return err
		}
		inputs, err := svc.Connections(id)
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Name:        %s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, "Tags:        %s\n", strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(&b, "Created:     %s", humanize.Time(p.CreatedAt))
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("Project %d", p.ID)).
			WithPadding(1).
			Println(b.String())

		if len(inputs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No connections saved. Add some with: tenantforge project save-connections", p.ID, "--connections FILE")
			return nil
		}

		data := pterm.TableData{{"ID", "Connection", "Schema"}}
		for _, in := range inputs {
			data = append(data, connectionRow(in))
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	},
}

var projectSaveCmd = &cobra.Command{
	Use:   "save-connections ID",
	Short: "Replace a project's connections with the ones in a file",
	Long: `Replaces the connection list of a project with the connections in a YAML or
JSON file. With --keychain, passwords are stored in the OS keychain and removed
from the project file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		if projectConnFile == "" {
			return fmt.Errorf("--connections is required")
		}
		inputs, err := connspec.LoadFile(projectConnFile)
		if err != nil {
			return err
		}
		raw := make([]json.RawMessage, 0, len(inputs))
		for _, in := range inputs {
			b, err := json.Marshal(in)
			if err != nil {
				return err
			}
			raw = append(raw, b)
		}

		svc, err := openProjects()
		if err != nil {
			return err
		}
		useKeychain := cfg.Store.UseKeychain
		if cmd.Flags().Changed("keychain") {
			useKeychain = projectKeychain
		}
		if err := svc.SaveConnections(id, raw, useKeychain); err != nil {
			return err
		}
		pterm.Success.Printf("Saved %d connections to project %d\n", len(raw), id)
		return nil
	},
}

// connectionRow renders an input without its password. Inputs that are not
// valid yet still show what is known.
func connectionRow(in connspec.Input) []string {
	spec, err := connspec.New(withPlaceholderPassword(in))
	if err != nil {
		return []string{in.ID, pterm.Red(logging.PresentError("invalid", err)), ""}
	}
	return []string{in.ID, maskPassword(spec.ConnString()), spec.Schema}
}

func withPlaceholderPassword(in connspec.Input) connspec.Input {
	if in.Password == "" {
		in.Password = "-"
	}
	return in
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectSaveCmd)

	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")
	projectCreateCmd.Flags().StringSliceVarP(&projectTags, "tag", "t", nil, "Tag (repeatable or comma separated)")
	projectListCmd.Flags().StringVarP(&projectOutput, "output", "o", outputTable, "Output format: table or json")
	projectSaveCmd.Flags().StringVarP(&projectConnFile, "connections", "c", "", "YAML or JSON file with a list of connections")
	projectSaveCmd.Flags().BoolVar(&projectKeychain, "keychain", false, "Store passwords in the OS keychain (default from config)")
}

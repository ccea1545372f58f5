// Package main is the entry point for the TenantForge CLI.
// It runs one SQL script against many tenant databases.
package main

import (
	"tenantforge/cli/cmd"
)

func main() {
	cmd.Execute()
}

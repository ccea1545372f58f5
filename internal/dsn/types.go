// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses and renders database connection URLs for tenant connections.
// It turns a postgres:// URL given on the command line into its components so it
// can become a connection spec, and renders a validated spec back into the
// canonical postgresql:// form handed to the driver.
package dsn

import (
	"fmt"
	"strings"
)

// DBType represents the type of database
type DBType string

const (
	DBTypePostgreSQL DBType = "postgresql"
	DBTypeMySQL      DBType = "mysql"
	DBTypeOracle     DBType = "oracle"
	DBTypeUnknown    DBType = "unknown"
)

// DefaultPort is the PostgreSQL port used when none is given.
const DefaultPort = "5432"

// DetectEngine maps the engine tag declared on a connection to a DBType.
// An empty tag means PostgreSQL, the only engine tenants currently run on.
func DetectEngine(tag string) DBType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "postgres", "postgresql", "pg", "pgsql":
		return DBTypePostgreSQL
	case "mysql", "mariadb":
		return DBTypeMySQL
	case "oracle":
		return DBTypeOracle
	}
	return DBTypeUnknown
}

// DSNInfo contains parsed information from a DSN string
type DSNInfo struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// Resolver is an interface for database-specific DSN resolution
type Resolver interface {
	// Parse parses a DSN string and returns normalized DSN info
	Parse(dsn string) (*DSNInfo, error)

	// Normalize converts DSN info to a properly formatted connection string
	Normalize(info *DSNInfo) (string, error)

	// Validate checks if the DSN is valid for the database type
	Validate(dsn string) error
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}

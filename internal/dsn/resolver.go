// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

// DetectDBType detects the database type from a DSN string
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(dsn)

	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgreSQL
	}
	if strings.HasPrefix(lower, "mysql://") {
		return DBTypeMySQL
	}
	if strings.HasPrefix(lower, "oracle://") {
		return DBTypeOracle
	}

	return DBTypeUnknown
}

// resolverFor returns the resolver for dsn's scheme. Only PostgreSQL tenants
// are supported; other known schemes fail with a hint.
func resolverFor(dsn string) (Resolver, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}

	switch DetectDBType(dsn) {
	case DBTypePostgreSQL:
		return NewPostgreSQLResolver(), nil
	case DBTypeMySQL:
		return nil, NewParseError(dsn, "MySQL tenants are not supported", "use a postgres:// connection")
	case DBTypeOracle:
		return nil, NewParseError(dsn, "Oracle tenants are not supported", "use a postgres:// connection")
	default:
		return nil, NewParseError(dsn, "unknown database type", "use postgres:// or postgresql://")
	}
}

// Validate validates a DSN string without normalizing it
func Validate(dsn string) error {
	resolver, err := resolverFor(dsn)
	if err != nil {
		return err
	}
	return resolver.Validate(dsn)
}

// ParseInfo parses a DSN string and returns detailed DSN info.
// Used to turn --dsn flags into connection specs.
func ParseInfo(dsn string) (*DSNInfo, error) {
	resolver, err := resolverFor(dsn)
	if err != nil {
		return nil, err
	}
	return resolver.Parse(dsn)
}

// Normalize renders info as a canonical connection string for its database type.
func Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	if info.Type != DBTypePostgreSQL {
		return "", NewParseError(info.Original, "unsupported database type "+string(info.Type), "use PostgreSQL")
	}
	return NewPostgreSQLResolver().Normalize(info)
}

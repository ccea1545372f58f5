// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package connspec describes one tenant database and the credentials needed to reach it.
//
// Callers decode an Input from JSON, YAML or a DSN and turn it into a Spec with New.
// A Spec is always valid: user, password and database are non-empty and the port is in
// range, so missing credentials are reported before any network I/O.
package connspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlekSi/pointer"

	"tenantforge/cli/internal/dsn"
	"tenantforge/cli/internal/errors"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 5432
	DefaultSSLMode = "prefer"
)

var sslModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Input is the caller-supplied shape of one connection. Optional fields are pointers
// so an absent value can be told apart from an empty one.
type Input struct {
	ID       string  `json:"id" yaml:"id"`
	Type     *string `json:"type,omitempty" yaml:"type,omitempty"`
	Host     *string `json:"host,omitempty" yaml:"host,omitempty"`
	DB       string  `json:"db" yaml:"db"`
	Schema   *string `json:"schema,omitempty" yaml:"schema,omitempty"`
	User     string  `json:"user" yaml:"user"`
	Password string  `json:"password" yaml:"password"`
	Port     *int    `json:"port,omitempty" yaml:"port,omitempty"`
	SSLMode  *string `json:"sslmode,omitempty" yaml:"sslmode,omitempty"`
}

// WithDefaultSSLMode returns in with SSLMode set to mode when in leaves it
// unset. An empty mode changes nothing.
func (in Input) WithDefaultSSLMode(mode string) Input {
	if in.SSLMode == nil && mode != "" {
		in.SSLMode = pointer.ToString(mode)
	}
	return in
}

// Spec is a validated connection description. Engine is informational; every
// connection is dialed as PostgreSQL.
type Spec struct {
	ID       string
	Engine   dsn.DBType
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string
	SSLMode  string
}

// New validates in and applies defaults. Every failure is an errors.InvalidSpec error.
func New(in Input) (Spec, error) {
	s := Spec{
		ID:       in.ID,
		Engine:   dsn.DetectEngine(pointer.GetString(in.Type)),
		Host:     strings.TrimSpace(pointer.GetString(in.Host)),
		Port:     DefaultPort,
		Database: in.DB,
		User:     in.User,
		Password: in.Password,
		Schema:   strings.TrimSpace(pointer.GetString(in.Schema)),
		SSLMode:  strings.ToLower(strings.TrimSpace(pointer.GetString(in.SSLMode))),
	}
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if in.Port != nil {
		s.Port = *in.Port
	}
	if s.SSLMode == "" {
		s.SSLMode = DefaultSSLMode
	}

	switch {
	case strings.TrimSpace(s.User) == "":
		return Spec{}, errors.New(errors.InvalidSpec, "user is required")
	case s.Password == "":
		return Spec{}, errors.New(errors.InvalidSpec, "password is required")
	case strings.TrimSpace(s.Database) == "":
		return Spec{}, errors.New(errors.InvalidSpec, "database name is required")
	case s.Port < 1 || s.Port > 65535:
		return Spec{}, errors.New(errors.InvalidSpec, fmt.Sprintf("port %d is out of range", s.Port))
	case !sslModes[s.SSLMode]:
		return Spec{}, errors.New(errors.InvalidSpec, fmt.Sprintf("unknown sslmode %q", s.SSLMode))
	case strings.Contains(s.Schema, ";"):
		return Spec{}, errors.New(errors.InvalidSpec, "schema must not contain ';'")
	}

	return s, nil
}

// ConnString renders s as a postgresql:// URL with escaped credentials.
func (s Spec) ConnString() string {
	out, _ := dsn.Normalize(&dsn.DSNInfo{
		Type:     dsn.DBTypePostgreSQL,
		Host:     s.Host,
		Port:     strconv.Itoa(s.Port),
		User:     s.User,
		Password: s.Password,
		Database: s.Database,
		Params:   map[string]string{"sslmode": s.SSLMode},
	})
	return out
}

// Address returns host:port for display.
func (s Spec) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FromDSN builds an Input from a postgres:// URL. A search_path parameter becomes
// the schema and sslmode is carried over.
func FromDSN(id, raw string) (Input, error) {
	info, err := dsn.ParseInfo(raw)
	if err != nil {
		return Input{}, err
	}
	in := Input{
		ID:       id,
		Type:     pointer.ToString(string(info.Type)),
		Host:     pointer.ToString(info.Host),
		DB:       info.Database,
		User:     info.User,
		Password: info.Password,
	}
	if info.Port != "" {
		port, err := strconv.Atoi(info.Port)
		if err != nil {
			return Input{}, dsn.NewParseError(raw, "invalid port number: "+info.Port, "port must be numeric")
		}
		in.Port = pointer.ToInt(port)
	}
	if v := info.Params["search_path"]; v != "" {
		in.Schema = pointer.ToString(v)
	}
	if v := info.Params["sslmode"]; v != "" {
		in.SSLMode = pointer.ToString(v)
	}
	return in, nil
}

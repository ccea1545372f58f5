// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package project persists named, tagged lists of tenant connections.
//
// A project's connection list is opaque to the store: it is saved exactly as the
// caller sent it and decoded leniently when read back, so a legacy single
// connection object reads as a one-element list. Service layers connection
// decoding and keychain-backed passwords on top of a Store.
package project

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for an unknown project id.
	ErrNotFound = errors.New("project not found")
	// ErrNameRequired is returned when creating a project with a blank name.
	ErrNameRequired = errors.New("project name is required")
)

// Project is a named group of tenant connections.
type Project struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Connections []json.RawMessage `json:"connections"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Store persists projects.
type Store interface {
	Create(name, description string, tags []string) (Project, error)
	List() ([]Project, error)
	Get(id int64) (Project, error)
	SaveConnections(id int64, connections []json.RawMessage) error
}

// decodeConnections accepts a JSON array or a single object. Anything else,
// including null, reads as no connections.
func decodeConnections(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		return []json.RawMessage{raw}
	}
	return nil
}

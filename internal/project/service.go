// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"encoding/json"
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/keychain"
	"tenantforge/cli/internal/logging"
)

// SecretStore holds connection passwords outside the project file.
type SecretStore interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Service combines a Store with optional keychain-held passwords.
type Service struct {
	store   Store
	secrets SecretStore
	logger  *pterm.Logger
}

// NewService creates a Service. secrets may be nil, in which case passwords
// stay in the connection records.
func NewService(store Store, secrets SecretStore, logger *pterm.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{store: store, secrets: secrets, logger: logger}
}

func (s *Service) Create(name, description string, tags []string) (Project, error) {
	return s.store.Create(name, description, tags)
}

func (s *Service) List() ([]Project, error) { return s.store.List() }

func (s *Service) Get(id int64) (Project, error) { return s.store.Get(id) }

// Connections decodes a project's saved connections. A record without a
// password gets the one held in the keychain under its connection id.
func (s *Service) Connections(id int64) ([]connspec.Input, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	out := make([]connspec.Input, 0, len(p.Connections))
	for i, raw := range p.Connections {
		var in connspec.Input
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, errors.Wrapf(err, "project %d: connection %d is malformed", id, i)
		}
		if in.Password == "" && s.secrets != nil && in.ID != "" {
			pw, err := s.secrets.Get(keychain.ConnectionKey(id, in.ID))
			switch {
			case err == nil:
				in.Password = pw
			case stderrors.Is(err, keychain.ErrNotFound):
				s.logger.Debug("no keychain password", s.logger.Args("project", id, "connection", in.ID))
			default:
				return nil, errors.Wrapf(err, "project %d: keychain lookup for %q", id, in.ID)
			}
		}
		out = append(out, in)
	}
	return out, nil
}

// SaveConnections replaces a project's connections. With useKeychain set,
// each record's password moves to the keychain and is dropped from the
// stored record. Fields the store does not know about are kept as sent.
func (s *Service) SaveConnections(id int64, connections []json.RawMessage, useKeychain bool) error {
	prev, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if !useKeychain || s.secrets == nil {
		if err := s.store.SaveConnections(id, connections); err != nil {
			return err
		}
		return s.forgetDropped(id, prev.Connections, connections)
	}

	stored := make([]json.RawMessage, 0, len(connections))
	for i, raw := range connections {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			// not an object: keep it opaque
			stored = append(stored, raw)
			continue
		}

		var connID, password string
		_ = json.Unmarshal(fields["id"], &connID)
		_ = json.Unmarshal(fields["password"], &password)
		if connID == "" || password == "" {
			stored = append(stored, raw)
			continue
		}

		if err := s.secrets.Set(keychain.ConnectionKey(id, connID), password); err != nil {
			return errors.Wrapf(err, "connection %d: failed to store password", i)
		}
		delete(fields, "password")
		b, err := json.Marshal(fields)
		if err != nil {
			return errors.Wrapf(err, "connection %d: failed to encode", i)
		}
		stored = append(stored, b)
		s.logger.Debug("password moved to keychain", s.logger.Args("project", id, "connection", connID))
	}
	if err := s.store.SaveConnections(id, stored); err != nil {
		return err
	}
	return s.forgetDropped(id, prev.Connections, stored)
}

// forgetDropped removes keychain passwords of connections that were in prev
// but are no longer in next.
func (s *Service) forgetDropped(id int64, prev, next []json.RawMessage) error {
	if s.secrets == nil {
		return nil
	}
	keep := connectionIDs(next)
	for connID := range connectionIDs(prev) {
		if _, ok := keep[connID]; ok {
			continue
		}
		if err := s.secrets.Delete(keychain.ConnectionKey(id, connID)); err != nil {
			return errors.Wrapf(err, "connection %q: failed to remove password", connID)
		}
		s.logger.Debug("keychain password removed", s.logger.Args("project", id, "connection", connID))
	}
	return nil
}

func connectionIDs(connections []json.RawMessage) map[string]struct{} {
	ids := make(map[string]struct{}, len(connections))
	for _, raw := range connections {
		var rec struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(raw, &rec) == nil && rec.ID != "" {
			ids[rec.ID] = struct{}{}
		}
	}
	return ids
}

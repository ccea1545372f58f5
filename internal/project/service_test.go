// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantforge/cli/internal/keychain"
)

func newTestService(t *testing.T) (*Service, *keychain.Manager) {
	t.Helper()
	secrets := keychain.NewWithKeyring(keyring.NewArrayKeyring(nil))
	store := NewJSONStore(filepath.Join(t.TempDir(), "projects.json"))
	return NewService(store, secrets, nil), secrets
}

func TestService_SaveConnectionsMovesPasswords(t *testing.T) {
	svc, secrets := newTestService(t)
	p, err := svc.Create("acme", "", nil)
	require.NoError(t, err)

	conns := []json.RawMessage{
		json.RawMessage(`{"id":"a","db":"app","user":"u","password":"s3cret","schema":"tenant_a"}`),
		json.RawMessage(`{"id":"b","db":"app","user":"u"}`),
	}
	require.NoError(t, svc.SaveConnections(p.ID, conns, true))

	stored, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.Connections[0]), "s3cret")

	pw, err := secrets.Get(keychain.ConnectionKey(p.ID, "a"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	inputs, err := svc.Connections(p.ID)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "s3cret", inputs[0].Password)
	require.NotNil(t, inputs[0].Schema)
	assert.Equal(t, "tenant_a", *inputs[0].Schema)
	assert.Equal(t, "", inputs[1].Password)
}

func TestService_SaveConnectionsForgetsDroppedPasswords(t *testing.T) {
	svc, secrets := newTestService(t)
	p, err := svc.Create("acme", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.SaveConnections(p.ID, []json.RawMessage{
		json.RawMessage(`{"id":"a","db":"app","user":"u","password":"pw-a"}`),
		json.RawMessage(`{"id":"b","db":"app","user":"u","password":"pw-b"}`),
	}, true))

	require.NoError(t, svc.SaveConnections(p.ID, []json.RawMessage{
		json.RawMessage(`{"id":"a","db":"app","user":"u"}`),
	}, true))

	pw, err := secrets.Get(keychain.ConnectionKey(p.ID, "a"))
	require.NoError(t, err)
	assert.Equal(t, "pw-a", pw)

	_, err = secrets.Get(keychain.ConnectionKey(p.ID, "b"))
	assert.ErrorIs(t, err, keychain.ErrNotFound)

	inputs, err := svc.Connections(p.ID)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "pw-a", inputs[0].Password)
}

func TestService_SaveConnectionsPlain(t *testing.T) {
	svc, secrets := newTestService(t)
	p, err := svc.Create("acme", "", nil)
	require.NoError(t, err)

	conns := []json.RawMessage{json.RawMessage(`{"id":"a","db":"app","user":"u","password":"pw"}`)}
	require.NoError(t, svc.SaveConnections(p.ID, conns, false))

	stored, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Contains(t, string(stored.Connections[0]), `"pw"`)

	_, err = secrets.Get(keychain.ConnectionKey(p.ID, "a"))
	assert.ErrorIs(t, err, keychain.ErrNotFound)
}

func TestService_UnknownProject(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.SaveConnections(3, nil, true), ErrNotFound)
	_, err := svc.Connections(3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_MalformedConnection(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.Create("acme", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SaveConnections(p.ID, []json.RawMessage{json.RawMessage(`{"id":"a","port":"x"}`)}, false))

	_, err = svc.Connections(p.ID)
	assert.ErrorContains(t, err, "connection 0 is malformed")
}

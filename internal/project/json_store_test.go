// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	return NewJSONStore(filepath.Join(t.TempDir(), "data", "projects.json"))
}

func TestJSONStore_EmptyWhenMissing(t *testing.T) {
	s := newTestStore(t)
	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStore_CreateAssignsIDs(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Create("acme", "first", []string{"prod"})
	require.NoError(t, err)
	b, err := s.Create("  globex ", "", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, "globex", b.Name)
	assert.Equal(t, []string{}, b.Tags)
	assert.Nil(t, a.Connections)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "acme", list[0].Name)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestJSONStore_CreateRequiresName(t *testing.T) {
	_, err := newTestStore(t).Create("  ", "", nil)
	assert.EqualError(t, err, "project name is required")
}

func TestJSONStore_SaveConnections(t *testing.T) {
	s := newTestStore(t)
	p, err := s.Create("acme", "", nil)
	require.NoError(t, err)

	conns := []json.RawMessage{
		json.RawMessage(`{"id":"a","db":"x","user":"u","password":"p","extra":true}`),
		json.RawMessage(`{"id":"b"}`),
	}
	require.NoError(t, s.SaveConnections(p.ID, conns))

	got, err := s.Get(p.ID)
	require.NoError(t, err)
	require.Len(t, got.Connections, 2)
	assert.JSONEq(t, string(conns[0]), string(got.Connections[0]))
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	assert.ErrorIs(t, s.SaveConnections(99, conns), ErrNotFound)
}

func TestJSONStore_LenientConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	data := `{"projects":[
		{"id":4,"name":"single","connections":{"id":"a"}},
		{"id":7,"name":"scalar","connections":"nope"},
		{"id":9,"name":"none"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s := NewJSONStore(path)
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Len(t, list[0].Connections, 1)
	assert.JSONEq(t, `{"id":"a"}`, string(list[0].Connections[0]))
	assert.Nil(t, list[1].Connections)
	assert.Nil(t, list[2].Connections)

	// next id continues after the highest stored id
	p, err := s.Create("next", "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewJSONStore(path).List()
	assert.ErrorContains(t, err, "failed to decode")
}

// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		list, err := Decode([]byte(`[{"id":"a","db":"a","user":"u","password":"p","port":5433},{"id":"b","db":"b","user":"u","password":"p","schema":"s"}]`))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, 5433, pointer.GetInt(list[0].Port))
		assert.Equal(t, "s", pointer.GetString(list[1].Schema))
		assert.Nil(t, list[1].Host)
	})

	t.Run("single object is wrapped", func(t *testing.T) {
		list, err := Decode([]byte(`{"id":"solo","db":"d","user":"u","password":"p"}`))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "solo", list[0].ID)
	})

	t.Run("yaml list", func(t *testing.T) {
		list, err := Decode([]byte("- id: acme\n  host: db1\n  db: acme\n  user: app\n  password: s3cret\n- id: globex\n  db: globex\n  user: app\n  password: other\n"))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "db1", pointer.GetString(list[0].Host))
		assert.Equal(t, "globex", list[1].ID)
	})

	t.Run("empty document", func(t *testing.T) {
		list, err := Decode([]byte("  \n"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("scalar is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`"nope"`))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: a\n  db: a\n  user: u\n  password: p\n"), 0o600))

	list, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

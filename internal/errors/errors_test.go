// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(InvalidSpec, "user is required")
		assert.Equal(t, "invalid_spec: user is required", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := Wrap(CommitFailed, "commit failed", stderrors.New("boom"))
		assert.Equal(t, "commit_failed: commit failed: boom", err.Error())
		assert.ErrorIs(t, err, err.Err)
	})
}

func TestKindOf(t *testing.T) {
	base := New(SchemaFailed, "could not set schema").WithCode("3F000")
	wrapped := fmt.Errorf("tenant a: %w", base)

	assert.Equal(t, SchemaFailed, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))

	var e *E
	require.True(t, stderrors.As(wrapped, &e))
	assert.Equal(t, "3F000", e.Code)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "", MessageOf(nil))
	assert.Equal(t, "plain", MessageOf(stderrors.New("plain")))
	assert.Equal(t, "database does not exist", MessageOf(Wrap(DatabaseNotFound, "database does not exist", stderrors.New("x"))))
}

func TestKind_IsConnect(t *testing.T) {
	for _, k := range []Kind{AuthenticationFailed, ConnectionRefused, DatabaseNotFound, ConnectFailed} {
		assert.True(t, k.IsConnect(), k)
	}
	for _, k := range []Kind{InvalidSpec, SchemaFailed, TransactionBeginFailed, BatchExecutionFailed, CommitFailed, SimpleExecutionFailed} {
		assert.False(t, k.IsConnect(), k)
	}
}

package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/infrastructure/config"
)

type fakeSchema struct {
	err   error
	calls int
}

func (f *fakeSchema) EnsureSchema(context.Context) error {
	f.calls++
	return f.err
}

type fakeCollection struct {
	err        error
	vectorSize uint64
	calls      int
}

func (f *fakeCollection) EnsureCollection(_ context.Context, vectorSize uint64) error {
	f.calls++
	f.vectorSize = vectorSize
	return f.err
}

func TestInitHandler_Handle_Success(t *testing.T) {
	tmpDir := t.TempDir()
	schema := &fakeSchema{}
	collection := &fakeCollection{}

	handler := NewInitHandler(schema, collection, 1536)

	result, err := handler.Handle(t.Context(), tmpDir)

	require.NoError(t, err)
	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Contains(t, result.DatabasePath, "jurisflow.db")
	assert.Equal(t, "jurisflow_timeline", result.CollectionName)
	assert.Equal(t, 1, schema.calls)
	assert.Equal(t, uint64(1536), collection.vectorSize)
	assert.True(t, config.Exists(tmpDir))
}

func TestInitHandler_Handle_WithoutSearch(t *testing.T) {
	handler := NewInitHandler(&fakeSchema{}, nil, 0)

	result, err := handler.Handle(t.Context(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, result.CollectionName)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, config.WriteDefault(tmpDir))

	schema := &fakeSchema{}
	handler := NewInitHandler(schema, nil, 0)

	_, err := handler.Handle(t.Context(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
	assert.Zero(t, schema.calls)
}

func TestInitHandler_Handle_Errors(t *testing.T) {
	t.Run("schema", func(t *testing.T) {
		handler := NewInitHandler(&fakeSchema{err: errors.New("disk full")}, nil, 0)

		_, err := handler.Handle(t.Context(), t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating schema")
	})

	t.Run("collection", func(t *testing.T) {
		handler := NewInitHandler(&fakeSchema{}, &fakeCollection{err: errors.New("connection failed")}, 1536)

		_, err := handler.Handle(t.Context(), t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating collection")
		assert.Contains(t, err.Error(), "connection failed")
	})
}

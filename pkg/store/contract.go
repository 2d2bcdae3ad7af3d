package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContract verifies a Store implementation against the port's contract.
// Adapter test files call it with a freshly constructed, empty store.
func RunContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		err := s.Put(ctx, "templates", "pricing-scan", []byte(`{"name":"pricing-scan"}`))
		require.NoError(t, err)

		got, err := s.Get(ctx, "templates", "pricing-scan")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"name":"pricing-scan"}`), got)
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "templates", "replace-me", []byte(`{"v":1}`)))
		require.NoError(t, s.Put(ctx, "templates", "replace-me", []byte(`{"v":2}`)))

		got, err := s.Get(ctx, "templates", "replace-me")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":2}`), got)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "templates", "no-such-record")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("get from unknown collection", func(t *testing.T) {
		_, err := s.Get(ctx, "never-written", "anything")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "templates", "doomed", []byte(`{}`)))
		require.NoError(t, s.Delete(ctx, "templates", "doomed"))

		_, err := s.Get(ctx, "templates", "doomed")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete absent is not an error", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "templates", "never-existed"))
	})

	t.Run("list is sorted", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "runs", "b-run", []byte(`{}`)))
		require.NoError(t, s.Put(ctx, "runs", "c-run", []byte(`{}`)))
		require.NoError(t, s.Put(ctx, "runs", "a-run", []byte(`{}`)))

		ids, err := s.List(ctx, "runs")
		require.NoError(t, err)
		assert.Equal(t, []string{"a-run", "b-run", "c-run"}, ids)
	})

	t.Run("list empty collection", func(t *testing.T) {
		ids, err := s.List(ctx, "empty-collection")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "left", "shared-id", []byte(`{"side":"left"}`)))
		require.NoError(t, s.Put(ctx, "right", "shared-id", []byte(`{"side":"right"}`)))

		got, err := s.Get(ctx, "left", "shared-id")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"side":"left"}`), got)

		require.NoError(t, s.Delete(ctx, "left", "shared-id"))
		_, err = s.Get(ctx, "right", "shared-id")
		assert.NoError(t, err)
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		assert.Error(t, s.Put(ctx, "", "id", []byte(`{}`)))
		assert.Error(t, s.Put(ctx, "templates", "", []byte(`{}`)))
		assert.Error(t, s.Put(ctx, "../escape", "id", []byte(`{}`)))
		assert.Error(t, s.Put(ctx, "templates", "../../etc/passwd", []byte(`{}`)))
		assert.Error(t, s.Put(ctx, "templates", ".hidden", []byte(`{}`)))

		_, err := s.Get(ctx, "templates", "bad/id")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

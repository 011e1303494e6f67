// Package storetest holds checks every kvstore backend has to pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConformance checks the basic Store contract against s.
// Keys are prefixed with t.Name() so shared backends (redis, postgres) don't clash between tests.
func RunConformance(t *testing.T, s kvstore.Store) {
	t.Helper()
	ctx := context.Background()
	key := func(k string) string {
		return kvstore.Key(t.Name(), k)
	}

	t.Run("missing key", func(t *testing.T) {
		value, err := s.Get(ctx, key("missing"))
		require.ErrorIs(t, err, kvstore.ErrNotFound)
		assert.Nil(t, value)
	})

	t.Run("set get overwrite delete", func(t *testing.T) {
		k := key("doc")
		require.NoError(t, s.Set(ctx, k, []byte(`{"a":1}`)))

		value, err := s.Get(ctx, k)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(value))

		require.NoError(t, s.Set(ctx, k, []byte(`{"a":2}`)))
		value, err = s.Get(ctx, k)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":2}`, string(value))

		require.NoError(t, s.Delete(ctx, k))
		_, err = s.Get(ctx, k)
		require.ErrorIs(t, err, kvstore.ErrNotFound)

		// deleting twice is fine
		require.NoError(t, s.Delete(ctx, k))
	})

	t.Run("json helpers", func(t *testing.T) {
		type doc struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		k := key("json")
		require.NoError(t, kvstore.SetJSON(ctx, s, k, doc{Name: "squat", Count: 3}))

		var loaded doc
		found, err := kvstore.GetJSON(ctx, s, k, &loaded)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, doc{Name: "squat", Count: 3}, loaded)

		require.NoError(t, s.Set(ctx, k, []byte(`{not json`)))
		found, err = kvstore.GetJSON(ctx, s, k, &loaded)
		require.NoError(t, err)
		assert.False(t, found)
	})

	watcher, ok := s.(kvstore.Watcher)
	if !ok {
		return
	}

	t.Run("watch", func(t *testing.T) {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		changes, err := watcher.Watch(watchCtx)
		require.NoError(t, err)

		k := key("watched")
		require.NoError(t, s.Set(ctx, k, []byte(`{}`)))

		select {
		case change := <-changes:
			assert.Equal(t, k, change.Key)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for change")
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, open := <-changes:
				return !open
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}

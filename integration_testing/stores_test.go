package integration_testing

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/kvstore/storetest"
)

func (s *IntegrationTestSuite) TestRedisStore() {
	store := kvstore.NewRedisStore(s.redisClient, "gymstreak-it-changes")
	storetest.RunConformance(s.T(), store)
}

func (s *IntegrationTestSuite) TestPostgresStore() {
	store := kvstore.NewPostgresStore(s.dbPool)
	require.NoError(s.T(), store.EnsureSchema(context.Background()))
	// idempotent
	require.NoError(s.T(), store.EnsureSchema(context.Background()))
	storetest.RunConformance(s.T(), store)
}

func (s *IntegrationTestSuite) TestRedisStore_WatchSeesOtherWriters() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := kvstore.NewRedisStore(s.redisClient, "gymstreak-it-watch")
	writer := kvstore.NewRedisStore(s.redisClient, "gymstreak-it-watch")

	changes, err := watcher.Watch(ctx)
	require.NoError(t, err)

	key := kvstore.Key("watch", t.Name())
	require.NoError(t, writer.Set(ctx, key, []byte(`{}`)))

	select {
	case change := <-changes:
		require.Equal(t, key, change.Key)
	case <-time.After(5 * time.Second):
		t.Fatal("change not received")
	}
}

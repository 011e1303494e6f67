package kvstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type OpenParams struct {
	Backend string

	Badger BadgerParams
	// RedisClient is required for the redis backend.
	RedisClient    *redis.Client
	ChangesChannel string
	// PostgresPool is required for the postgres backend.
	PostgresPool *pgxpool.Pool

	CacheEnabled   bool
	CacheSizeBytes int
	CacheTTLSecs   int
}

func Open(ctx context.Context, params OpenParams) (Store, error) {
	var (
		store Store
		err   error
	)

	switch params.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendBadger:
		store, err = OpenBadgerStore(params.Badger)
		if err != nil {
			return nil, err
		}
	case BackendRedis:
		if params.RedisClient == nil {
			return nil, fmt.Errorf("redis backend: redis client not set")
		}
		store = NewRedisStore(params.RedisClient, params.ChangesChannel)
	case BackendPostgres:
		if params.PostgresPool == nil {
			return nil, fmt.Errorf("postgres backend: db pool not set")
		}
		pgStore := NewPostgresStore(params.PostgresPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, fmt.Errorf("unknown store backend: %s", params.Backend)
	}

	log.Debugf("kvstore: opened [%s] backend, cache enabled: %t", params.Backend, params.CacheEnabled)

	if params.CacheEnabled {
		return NewCachedStore(store, params.CacheSizeBytes, params.CacheTTLSecs), nil
	}
	return store, nil
}

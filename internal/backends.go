package internal

import (
	"context"
	"fmt"
	"net"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/config"
	"github.com/2beens/gymstreak/internal/db"
	"github.com/2beens/gymstreak/internal/kvstore"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/telemetry/metrics"
)

// Backends are the storage connections shared by the HTTP service and the CLI.
type Backends struct {
	Store       kvstore.Store
	RedisClient *redis.Client
	DBPool      *pgxpool.Pool
}

// OpenBackends connects to redis (if configured) and postgres (for the postgres backend),
// and opens the configured key-value store on top of them.
func OpenBackends(ctx context.Context, cfg *config.Config, secrets *config.Secrets) (_ *Backends, err error) {
	b := &Backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	tracingEnabled := cfg.TraceExporter != "none"

	if cfg.RedisHost != "" {
		b.RedisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: secrets.RedisPassword,
			DB:       0, // use default DB
		})
		if tracingEnabled {
			b.RedisClient.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := b.RedisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	if cfg.StoreBackend == config.StoreBackendPostgres {
		b.DBPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: tracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := b.DBPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
	}

	b.Store, err = kvstore.Open(ctx, kvstore.OpenParams{
		Backend: cfg.StoreBackend,
		Badger: kvstore.BadgerParams{
			Path:       cfg.BadgerPath,
			SyncWrites: true,
		},
		RedisClient:    b.RedisClient,
		ChangesChannel: kvstore.DefaultChangesChannel,
		PostgresPool:   b.DBPool,
		CacheEnabled:   cfg.StoreCacheEnabled,
		CacheSizeBytes: cfg.StoreCacheSizeMB * 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return b, nil
}

// Close releases the store and the connections.
func (b *Backends) Close() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			log.Errorf("close store: %s", err)
		}
	}
	if b.RedisClient != nil {
		if err := b.RedisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}
	if b.DBPool != nil {
		log.Debugln("closing db pool ...")
		b.DBPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}

// Notifier delivers streak notifications to the log and, with redis available, to subscribers
// of the notifications channel.
func (b *Backends) Notifier() streaks.Notifier {
	if b.RedisClient == nil {
		return streaks.LogNotifier{}
	}
	return streaks.MultiNotifier{
		streaks.LogNotifier{},
		streaks.NewRedisNotifier(b.RedisClient, streaks.DefaultNotificationsChannel),
	}
}

func StreaksPolicy(cfg *config.Config) streaks.Policy {
	return streaks.Policy{
		Rescue:               streaks.RescuePolicy(cfg.RescuePolicy),
		RescueCost:           cfg.RescueCost,
		CarryoverWeightsOnly: cfg.CarryoverWeightsOnly,
		MaxFinalizeWeeks:     cfg.MaxFinalizeWeeks,
	}
}

func NewStreaksService(cfg *config.Config, b *Backends, metricsManager *metrics.Manager) *streaks.Service {
	return streaks.NewService(streaks.NewServiceParams{
		Repo:      streaks.NewRepo(b.Store),
		Notifier:  b.Notifier(),
		Timezones: streaks.StaticTimezone(cfg.Timezone),
		Policy:    StreaksPolicy(cfg),
		Metrics:   metricsManager,
	})
}

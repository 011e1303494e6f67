package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

var (
	_ Store   = (*RedisStore)(nil)
	_ Watcher = (*RedisStore)(nil)
)

const DefaultChangesChannel = "gymstreak-kv-changes"

// RedisStore keeps documents as plain redis strings, and publishes every written key
// on a pub/sub channel so other instances can drop stale state.
type RedisStore struct {
	rdb            *redis.Client
	changesChannel string
}

func NewRedisStore(rdb *redis.Client, changesChannel string) *RedisStore {
	if changesChannel == "" {
		changesChannel = DefaultChangesChannel
	}
	return &RedisStore{
		rdb:            rdb,
		changesChannel: changesChannel,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return err
	}
	r.publish(ctx, key)
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return err
	}
	r.publish(ctx, key)
	return nil
}

// Close is a no-op, the client is owned by whoever created it.
func (r *RedisStore) Close() error {
	return nil
}

func (r *RedisStore) Watch(ctx context.Context) (<-chan Change, error) {
	pubsub := r.rdb.Subscribe(ctx, r.changesChannel)
	// wait for the subscription confirmation, so no change is missed after Watch returns
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to [%s]: %w", r.changesChannel, err)
	}

	changes := make(chan Change, watchBufferSize)
	go func() {
		defer close(changes)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Warnf("kvstore: close redis pubsub: %s", err)
			}
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case changes <- Change{Key: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return changes, nil
}

// publish is best effort, a failed notification does not fail the write.
func (r *RedisStore) publish(ctx context.Context, key string) {
	if err := r.rdb.Publish(ctx, r.changesChannel, key).Err(); err != nil {
		log.Warnf("kvstore: publish change of [%s]: %s", key, err)
	}
}

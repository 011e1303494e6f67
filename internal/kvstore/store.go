// Package kvstore is the persistence collaborator of the app: a plain key-value store of JSON
// documents, with several backends (memory, badger, redis, postgres) and an optional read cache.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const keyPrefix = "gymstreak"

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Change is sent to watchers whenever a key is written or deleted.
type Change struct {
	Key string `json:"key"`
}

// Watcher is implemented by stores able to notify about changes made by other writers
// (other processes, other tabs of the same user).
type Watcher interface {
	// Watch returns a channel of changes; it is closed once ctx is done.
	Watch(ctx context.Context) (<-chan Change, error)
}

// Key builds a per-user namespaced key, e.g. gymstreak:default:streak-state.
func Key(userID, collection string) string {
	return strings.Join([]string{keyPrefix, userID, collection}, ":")
}

// GetJSON loads key into dst. A missing key or malformed JSON is reported as found == false,
// never as an error: callers fall back to their documented defaults.
func GetJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get [%s]: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warnf("kvstore: malformed json under [%s], treating as absent: %s", key, err)
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal [%s]: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set [%s]: %w", key, err)
	}
	return nil
}

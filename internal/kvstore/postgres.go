package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var (
	_ Store   = (*PostgresStore)(nil)
	_ Watcher = (*PostgresStore)(nil)
)

const postgresNotifyChannel = "gymstreak_kv_changes"

// PostgresStore keeps documents in a single kv_entry table and uses LISTEN/NOTIFY
// to announce changes.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (p *PostgresStore) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kvstore.postgres.ensure-schema")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	_, err = p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entry (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create kv_entry table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kvstore.postgres.get")
	defer func() {
		if errors.Is(err, ErrNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var value []byte
	err = p.db.
		QueryRow(ctx, `
			SELECT value
			FROM kv_entry
			WHERE key = $1
		`, key).
		Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kvstore.postgres.set")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO kv_entry (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value); err != nil {
		return err
	}

	// delivered on commit only
	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, postgresNotifyChannel, key)
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, key string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.kvstore.postgres.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if _, err = p.db.Exec(ctx, `DELETE FROM kv_entry WHERE key = $1`, key); err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, `SELECT pg_notify($1, $2)`, postgresNotifyChannel, key); err != nil {
		log.Warnf("kvstore: notify delete of [%s]: %s", key, err)
	}
	return nil
}

// Close is a no-op, the pool is owned by whoever created it.
func (p *PostgresStore) Close() error {
	return nil
}

func (p *PostgresStore) Watch(ctx context.Context) (<-chan Change, error) {
	conn, err := p.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+postgresNotifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen [%s]: %w", postgresNotifyChannel, err)
	}

	changes := make(chan Change, watchBufferSize)
	go func() {
		defer close(changes)
		defer func() {
			// the conn goes back to the pool, stop listening first
			if _, err := conn.Exec(context.Background(), "UNLISTEN "+postgresNotifyChannel); err != nil {
				log.Debugf("kvstore: unlisten: %s", err)
			}
			conn.Release()
		}()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Errorf("kvstore: wait for postgres notification: %s", err)
				}
				return
			}
			select {
			case changes <- Change{Key: notification.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

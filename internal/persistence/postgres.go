package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/config"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}

// PostgresSnapshotStore persists collection snapshots in a flat key-value
// table. The collections are whole-snapshot blobs, not rows per entity.
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotStore creates the store and its backing table.
func NewPostgresSnapshotStore(ctx context.Context, pg *Postgres, logger *zap.Logger) (*PostgresSnapshotStore, error) {
	const schema = `
        CREATE TABLE IF NOT EXISTS snapshots (
            name        TEXT PRIMARY KEY,
            data        BYTEA NOT NULL,
            updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := pg.Pool.Exec(ctx, schema); err != nil {
		return nil, err
	}
	logger.Info("snapshot table ready")
	return &PostgresSnapshotStore{pool: pg.Pool}, nil
}

// Save upserts the snapshot blob.
func (s *PostgresSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	const query = `
        INSERT INTO snapshots (name, data, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query, key, data)
	return err
}

// Load returns (nil, nil) when no snapshot exists.
func (s *PostgresSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT data FROM snapshots WHERE name = $1`
	var data []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the snapshot.
func (s *PostgresSnapshotStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM snapshots WHERE name = $1`
	_, err := s.pool.Exec(ctx, query, key)
	return err
}

package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createSnapshotTable = `
		CREATE TABLE IF NOT EXISTS space_snapshots (
			id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			version    INTEGER NOT NULL,
			snapshot   JSONB NOT NULL,
			saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	selectSnapshot = `SELECT snapshot FROM space_snapshots WHERE id = 1`

	upsertSnapshot = `
		INSERT INTO space_snapshots (id, version, snapshot, saved_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, snapshot = EXCLUDED.snapshot, saved_at = EXCLUDED.saved_at`
)

// PostgresStore keeps the snapshot in a single-row JSONB table. Each Save is
// one transaction, so a crash leaves either the old or the new snapshot.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ domain.SnapshotStore = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore using the given pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the snapshot table if needed
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load reads the snapshot row, returning an empty snapshot if there is none
func (s *PostgresStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, selectSnapshot).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from postgres: %w", err)
	}
	return Decode(data)
}

// Save replaces the snapshot row inside a transaction
func (s *PostgresStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertSnapshot, domain.SnapshotVersion, data); err != nil {
		return fmt.Errorf("save snapshot to postgres: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot transaction: %w", err)
	}
	return nil
}

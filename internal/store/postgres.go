package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_snapshots (
	name       TEXT PRIMARY KEY,
	blob       BYTEA NOT NULL,
	checksum   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps blobs in the index_snapshots table, one row per
// name.
type PostgresStore struct {
	client *postgres.Client
}

func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if err := s.client.EnsureSchema(ctx, schema); err != nil {
		return fmt.Errorf("creating index_snapshots table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, blob []byte) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO index_snapshots (name, blob, checksum, created_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (name) DO UPDATE
			SET blob = EXCLUDED.blob, checksum = EXCLUDED.checksum, created_at = EXCLUDED.created_at`,
			name, blob, Checksum(blob),
		)
		if err != nil {
			return fmt.Errorf("upserting index snapshot %q: %w", name, err)
		}
		return nil
	})
}

func (s *PostgresStore) Load(ctx context.Context, name string) ([]byte, error) {
	var blob []byte
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT blob FROM index_snapshots WHERE name = $1`, name,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %q", apperrors.ErrIndexNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying index snapshot %q: %w", name, err)
	}
	return blob, nil
}

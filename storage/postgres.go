package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youssefsiam38/compactpg/types"
)

// Schema is the DDL for the snapshot table. Run it once per database, or
// call CreateSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS compactpg_snapshots (
	session_id       UUID PRIMARY KEY,
	history          JSONB NOT NULL DEFAULT '[]',
	compacted_hashes BIGINT[] NOT NULL DEFAULT '{}',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresStore implements Store using PostgreSQL with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL snapshot store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSnapshot inserts or replaces the snapshot for its session.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}

	historyJSON, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	hashes := hashesToInt64(snap.CompactedHashes)

	query := `
		INSERT INTO compactpg_snapshots (session_id, history, compacted_hashes, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id) DO UPDATE
		SET history = EXCLUDED.history,
		    compacted_hashes = EXCLUDED.compacted_hashes,
		    updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, snap.SessionID, historyJSON, hashes); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the snapshot for a session.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	query := `
		SELECT session_id, history, compacted_hashes, updated_at
		FROM compactpg_snapshots
		WHERE session_id = $1
	`

	var snap Snapshot
	var historyJSON []byte
	var hashes []int64

	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&snap.SessionID,
		&historyJSON,
		&hashes,
		&snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if snap.History, err = unmarshalHistory(historyJSON); err != nil {
		return nil, err
	}
	snap.CompactedHashes = int64ToHashes(hashes)
	return &snap, nil
}

// DeleteSnapshot removes the snapshot for a session.
func (s *PostgresStore) DeleteSnapshot(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM compactpg_snapshots WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// hashesToInt64 reinterprets hashes for BIGINT[] storage. Values above
// 1<<63 wrap to negative and are restored symmetrically.
func hashesToInt64(hashes []uint64) []int64 {
	out := make([]int64, len(hashes))
	for i, h := range hashes {
		out[i] = int64(h)
	}
	return out
}

func int64ToHashes(values []int64) []uint64 {
	out := make([]uint64, len(values))
	for i, v := range values {
		out[i] = uint64(v)
	}
	return out
}

// unmarshalHistory is shared with the database/sql store.
func unmarshalHistory(data []byte) ([]*types.Message, error) {
	var history []*types.Message
	if len(data) == 0 {
		return history, nil
	}
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, nil
}

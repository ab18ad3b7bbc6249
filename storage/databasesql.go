package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLStore implements Store on top of database/sql with the lib/pq
// driver, for applications that cannot adopt pgx directly.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a snapshot store backed by a database/sql pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// CreateSchema creates the snapshot table if it does not exist.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSnapshot inserts or replaces the snapshot for its session.
func (s *SQLStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}

	historyJSON, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO compactpg_snapshots (session_id, history, compacted_hashes, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id) DO UPDATE
		SET history = EXCLUDED.history,
		    compacted_hashes = EXCLUDED.compacted_hashes,
		    updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		snap.SessionID, historyJSON, pq.Array(hashesToInt64(snap.CompactedHashes)))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the snapshot for a session.
func (s *SQLStore) LoadSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	query := `
		SELECT session_id, history, compacted_hashes, updated_at
		FROM compactpg_snapshots
		WHERE session_id = $1
	`

	var snap Snapshot
	var historyJSON []byte
	var hashes []int64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&snap.SessionID,
		&historyJSON,
		pq.Array(&hashes),
		&snap.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	history, err := unmarshalHistory(historyJSON)
	if err != nil {
		return nil, err
	}
	snap.History = history
	snap.CompactedHashes = int64ToHashes(hashes)
	return &snap, nil
}

// DeleteSnapshot removes the snapshot for a session.
func (s *SQLStore) DeleteSnapshot(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM compactpg_snapshots WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Package storage persists engine snapshots: the message history and the
// compacted-hash ledger of a session. The engine itself stays
// persistence-free; this package only consumes the plain accessors the
// engine exposes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg"
	"github.com/youssefsiam38/compactpg/types"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a session.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the serializable state of one engine instance.
type Snapshot struct {
	SessionID       uuid.UUID        `json:"session_id"`
	History         []*types.Message `json:"history"`
	CompactedHashes []uint64         `json:"compacted_hashes"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Store defines snapshot persistence.
type Store interface {
	// SaveSnapshot inserts or replaces the snapshot for its session.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LoadSnapshot retrieves the snapshot for a session. Returns
	// ErrSnapshotNotFound if none exists.
	LoadSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)

	// DeleteSnapshot removes the snapshot for a session. Deleting a
	// missing snapshot is not an error.
	DeleteSnapshot(ctx context.Context, sessionID uuid.UUID) error
}

// SaveEngine snapshots an engine's state into the store.
func SaveEngine(ctx context.Context, store Store, engine *compactpg.Engine) error {
	return store.SaveSnapshot(ctx, &Snapshot{
		SessionID:       engine.SessionID(),
		History:         engine.GetMessageHistory(),
		CompactedHashes: engine.GetCompactedMessageHashes(),
		UpdatedAt:       time.Now(),
	})
}

// RestoreEngine loads the snapshot for the engine's session and installs
// it as the engine's state.
func RestoreEngine(ctx context.Context, store Store, engine *compactpg.Engine) error {
	snap, err := store.LoadSnapshot(ctx, engine.SessionID())
	if err != nil {
		return err
	}
	engine.SetMessageHistory(snap.History)
	for _, h := range snap.CompactedHashes {
		engine.AddCompactedMessageHash(h)
	}
	return nil
}

package domain

import (
	"context"
	"time"
)

// SnapshotVersion is the current persisted snapshot format
const SnapshotVersion = 1

// Snapshot is the full persisted state: every space plus the cached current user
type Snapshot struct {
	Version     int       `json:"version"`
	Spaces      []*Space  `json:"spaces"`
	CurrentUser *User     `json:"currentUser"`
	SavedAt     time.Time `json:"savedAt"`
}

// SnapshotStore is the persistence port. Save replaces the whole snapshot
// atomically; Load returns an empty snapshot when nothing was saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Package snapshot contains the persistence port implementations. Every store
// writes the whole snapshot as one JSON document and replaces it atomically.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
)

// Encode serializes a snapshot. Timestamps are written as RFC 3339 with
// nanoseconds so decoding reconstructs the same instants.
func Encode(snap *domain.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = Empty()
	}
	if snap.Version == 0 {
		versioned := *snap
		versioned.Version = domain.SnapshotVersion
		snap = &versioned
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode
func Decode(data []byte) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version > domain.SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}
	if snap.Spaces == nil {
		snap.Spaces = []*domain.Space{}
	}
	return &snap, nil
}

// Empty returns the snapshot used before anything has been saved
func Empty() *domain.Snapshot {
	return &domain.Snapshot{Version: domain.SnapshotVersion, Spaces: []*domain.Space{}}
}

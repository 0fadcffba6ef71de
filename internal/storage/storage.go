// Package storage keeps opaque per-session JSON snapshots.
package storage

import (
	"context"
	"errors"
)

// SnapshotStore persists one snapshot per session id. Load returns
// ErrSnapshotMiss when nothing is stored.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, snapshot []byte) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrSnapshotMiss = errors.New("snapshot miss")

package store

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

// Snapshot keys, one per persisted collection plus the actor session.
const (
	SnapshotKeyUsers        = "users"
	SnapshotKeyTickets      = "tickets"
	SnapshotKeyMessages     = "messages"
	SnapshotKeyHistory      = "history"
	SnapshotKeyCurrentActor = "current_actor"
)

// Snapshotter persists serialized collections under flat keys. Load returns
// (nil, nil) when no snapshot exists for the key.
type Snapshotter interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

package valkey

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"
)

// snapshotTTL keeps abandoned view snapshots from accumulating forever.
const snapshotTTL = 30 * 24 * time.Hour

// SnapshotStore implements ports.SnapshotStore, persisting one viewport
// snapshot per user so a returning visitor lands where they left off.
type SnapshotStore struct {
	client valkey.Client
	key    string
}

// NewSnapshotStore creates a snapshot store scoped to one user or device.
func NewSnapshotStore(client valkey.Client, userKey string) *SnapshotStore {
	return &SnapshotStore{client: client, key: "map:snapshot:" + userKey}
}

// Load returns the stored snapshot, or nil when none exists.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Save overwrites the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(s.key).Value(string(data)).Ex(snapshotTTL).Build(),
	)
	return cmd.Error()
}

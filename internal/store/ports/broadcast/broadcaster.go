// Package broadcast определяет порт рассылки коллекции заметок подключенным зрителям.
package broadcast

import (
	"context"

	"notesync/internal/store/domain/entities"
)

// Broadcaster рассылает текущую коллекцию всем зрителям.
type Broadcaster interface {
	Broadcast(ctx context.Context) error
}

// SnapshotSource читает текущую коллекцию заметок.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (entities.Snapshot, error)
}

// SnapshotFunc адаптирует функцию к SnapshotSource.
type SnapshotFunc func(ctx context.Context) (entities.Snapshot, error)

// Snapshot вызывает f.
func (f SnapshotFunc) Snapshot(ctx context.Context) (entities.Snapshot, error) {
	return f(ctx)
}

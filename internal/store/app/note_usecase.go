package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/broadcast"
	"notesync/internal/store/ports/repositories"
	"notesync/pkg/logger"
)

const (
	LogBroadcastFailed = "failed to broadcast notes"

	errEmptyName = "note name is required"
)

// NoteUseCase сохраняет заметки и оповещает зрителей после каждой мутации.
type NoteUseCase struct {
	repo        repositories.NoteRepository
	broadcaster broadcast.Broadcaster
}

// NewNoteUseCase создает NoteUseCase.
func NewNoteUseCase(repo repositories.NoteRepository, broadcaster broadcast.Broadcaster) *NoteUseCase {
	return &NoteUseCase{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

// UpsertNotes сохраняет пакет целиком или не сохраняет ничего.
// Рассылка выполняется и при ошибке сохранения.
func (uc *NoteUseCase) UpsertNotes(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error) {
	for i, in := range batch {
		if strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("%w: %s (item %d)", ErrInvalidParams, errEmptyName, i)
		}
	}

	var (
		notes []*entities.Note
		err   error
	)
	if len(batch) > 0 {
		notes, err = uc.repo.Upsert(ctx, batch)
	}
	uc.broadcast(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert notes: %w", err)
	}
	return notes, nil
}

// DeleteNote удаляет заметку и сообщает, существовала ли она.
func (uc *NoteUseCase) DeleteNote(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("%w: %s", ErrInvalidParams, errEmptyName)
	}

	deleted, err := uc.repo.Delete(ctx, name)
	uc.broadcast(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	return deleted, nil
}

// RenameNote заменяет заметку oldName заметкой newName с content.
func (uc *NoteUseCase) RenameNote(ctx context.Context, oldName, newName, content string) (*entities.Note, error) {
	if strings.TrimSpace(oldName) == "" || strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParams, errEmptyName)
	}

	note, err := uc.repo.Rename(ctx, oldName, newName, content)
	uc.broadcast(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to rename note: %w", err)
	}
	return note, nil
}

// ListNotes возвращает всю коллекцию.
func (uc *NoteUseCase) ListNotes(ctx context.Context) ([]*entities.Note, error) {
	notes, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Snapshot реализует broadcast.SnapshotSource.
func (uc *NoteUseCase) Snapshot(ctx context.Context) (entities.Snapshot, error) {
	return uc.ListNotes(ctx)
}

// broadcast не прерывается отменой запроса: клиент может отключиться раньше зрителей.
func (uc *NoteUseCase) broadcast(ctx context.Context) {
	if uc.broadcaster == nil {
		return
	}
	if err := uc.broadcaster.Broadcast(context.WithoutCancel(ctx)); err != nil {
		logger.Log(ctx).Warn(ctx, LogBroadcastFailed, zap.Error(err))
	}
}

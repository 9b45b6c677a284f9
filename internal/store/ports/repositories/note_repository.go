// Package repositories определяет интерфейсы хранилища заметок.
package repositories

import (
	"context"

	"notesync/internal/store/domain/entities"
)

// NoteRepository хранит заметки по уникальному имени.
type NoteRepository interface {
	// Upsert создает или заменяет заметки пакета в одной транзакции.
	Upsert(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error)
	// Delete удаляет заметку и сообщает, существовала ли она.
	Delete(ctx context.Context, name string) (bool, error)
	// Rename атомарно удаляет oldName и сохраняет заметку newName с content.
	Rename(ctx context.Context, oldName, newName, content string) (*entities.Note, error)
	// List возвращает все заметки в порядке создания.
	List(ctx context.Context) ([]*entities.Note, error)
}

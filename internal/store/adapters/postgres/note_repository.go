// Package postgres реализует хранилище заметок поверх PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/repositories"
	"notesync/pkg/logger"
)

// Pool - подмножество pgxpool.Pool, используемое репозиторием.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier - общее подмножество Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// updated_at растет строго монотонно даже при совпадении отметок часов.
const (
	upsertNoteQuery = `INSERT INTO notes (name, content, created_at, updated_at)
VALUES ($1, $2, clock_timestamp(), clock_timestamp())
ON CONFLICT (name) DO UPDATE
SET content = EXCLUDED.content,
    updated_at = GREATEST(clock_timestamp(), notes.updated_at + interval '1 microsecond')
RETURNING id::text, name, content, created_at, updated_at`

	deleteNoteQuery = `DELETE FROM notes WHERE name = $1`

	listNotesQuery = `SELECT id::text, name, content, created_at, updated_at
FROM notes
ORDER BY created_at, name`
)

const (
	ErrBeginTx      = "failed to begin transaction"
	ErrCommitTx     = "failed to commit transaction"
	ErrUpsertNote   = "failed to upsert note"
	ErrDeleteNote   = "failed to delete note"
	ErrRenameNote   = "failed to rename note"
	ErrListNotes    = "failed to list notes"
	ErrScanNote     = "failed to scan note"
	ErrIterateNotes = "error iterating rows"
)

// NoteRepository реализует repositories.NoteRepository.
type NoteRepository struct {
	pool Pool
}

// NewNoteRepository создает репозиторий заметок.
func NewNoteRepository(pool Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// Upsert сохраняет пакет заметок в одной транзакции.
func (r *NoteRepository) Upsert(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Upsert"))
	log.Debug(ctx, "upserting notes", zap.Int("count", len(batch)))

	notes := make([]*entities.Note, 0, len(batch))
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		for _, in := range batch {
			note, err := upsert(ctx, tx, in.Name, in.Content)
			if err != nil {
				return fmt.Errorf("%s %q: %w", ErrUpsertNote, in.Name, err)
			}
			notes = append(notes, note)
		}
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrUpsertNote, zap.Error(err))
		return nil, err
	}

	return notes, nil
}

// Delete удаляет заметку по имени.
func (r *NoteRepository) Delete(ctx context.Context, name string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"))
	log.Debug(ctx, "deleting note", zap.String("name", name))

	tag, err := r.pool.Exec(ctx, deleteNoteQuery, name)
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return false, fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}

	return tag.RowsAffected() > 0, nil
}

// Rename удаляет oldName и сохраняет newName в одной транзакции.
func (r *NoteRepository) Rename(ctx context.Context, oldName, newName, content string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Rename"))
	log.Debug(ctx, "renaming note", zap.String("old_name", oldName), zap.String("new_name", newName))

	var note *entities.Note
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if oldName != newName {
			if _, err := tx.Exec(ctx, deleteNoteQuery, oldName); err != nil {
				return fmt.Errorf("%s: %w", ErrDeleteNote, err)
			}
		}
		var err error
		note, err = upsert(ctx, tx, newName, content)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrUpsertNote, err)
		}
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrRenameNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrRenameNote, err)
	}

	return note, nil
}

// List возвращает все заметки.
func (r *NoteRepository) List(ctx context.Context) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.List"))

	rows, err := r.pool.Query(ctx, listNotesQuery)
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		if err := rows.Scan(&note.ID, &note.Name, &note.Content, &note.CreatedAt, &note.UpdatedAt); err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrIterateNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrIterateNotes, err)
	}

	return notes, nil
}

func upsert(ctx context.Context, q querier, name, content string) (*entities.Note, error) {
	var note entities.Note
	err := q.QueryRow(ctx, upsertNoteQuery, name, content).
		Scan(&note.ID, &note.Name, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// inTx выполняет fn в транзакции. Откат выполняется только при ошибке fn.
func (r *NoteRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrBeginTx, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrCommitTx, err)
	}
	return nil
}

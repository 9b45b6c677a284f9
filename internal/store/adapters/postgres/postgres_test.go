package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/store/adapters/postgres"
	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/repositories"
)

const (
	upsertPattern = `INSERT INTO notes \(name, content, created_at, updated_at\)`
	deletePattern = `DELETE FROM notes WHERE name = \$1`
	listPattern   = `SELECT id::text, name, content, created_at, updated_at\s+FROM notes\s+ORDER BY created_at, name`
)

var (
	errDatabase = errors.New("database connection failed")
	noteColumns = []string{"id", "name", "content", "created_at", "updated_at"}
	created     = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRepositoryFactory(t *testing.T) {
	mock := newMock(t)

	repo := postgres.NewRepositoryFactory(mock).NoteRepository()

	assert.NotNil(t, repo)
	assert.Implements(t, (*repositories.NoteRepository)(nil), repo)
}

func TestNoteRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	batch := []entities.NoteInput{
		{Name: "a.md", Content: "alpha"},
		{Name: "b.md", Content: "beta"},
	}

	t.Run("commits whole batch", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(upsertPattern).WithArgs("a.md", "alpha").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-a", "a.md", "alpha", created, created))
		mock.ExpectQuery(upsertPattern).WithArgs("b.md", "beta").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-b", "b.md", "beta", created, created))
		mock.ExpectCommit()

		notes, err := postgres.NewNoteRepository(mock).Upsert(ctx, batch)

		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "id-a", notes[0].ID)
		assert.Equal(t, "beta", notes[1].Content)
		assert.Equal(t, created, notes[1].CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failed item", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(upsertPattern).WithArgs("a.md", "alpha").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-a", "a.md", "alpha", created, created))
		mock.ExpectQuery(upsertPattern).WithArgs("b.md", "beta").WillReturnError(errDatabase)
		mock.ExpectRollback()

		notes, err := postgres.NewNoteRepository(mock).Upsert(ctx, batch)

		require.ErrorIs(t, err, errDatabase)
		assert.Nil(t, notes)
		assert.Contains(t, err.Error(), postgres.ErrUpsertNote)
		assert.Contains(t, err.Error(), "b.md")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errDatabase)

		_, err := postgres.NewNoteRepository(mock).Upsert(ctx, batch)

		require.ErrorIs(t, err, errDatabase)
		assert.Contains(t, err.Error(), postgres.ErrBeginTx)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit fails", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(upsertPattern).WithArgs("a.md", "alpha").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-a", "a.md", "alpha", created, created))
		mock.ExpectCommit().WillReturnError(errDatabase)

		_, err := postgres.NewNoteRepository(mock).Upsert(ctx, batch[:1])

		require.ErrorIs(t, err, errDatabase)
		assert.Contains(t, err.Error(), postgres.ErrCommitTx)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		tag         pgconn.CommandTag
		err         error
		wantDeleted bool
		wantErr     bool
	}{
		{name: "existing note", tag: pgconn.NewCommandTag("DELETE 1"), wantDeleted: true},
		{name: "missing note", tag: pgconn.NewCommandTag("DELETE 0"), wantDeleted: false},
		{name: "database error", err: errDatabase, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			exp := mock.ExpectExec(deletePattern).WithArgs("diary.md")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.tag)
			}

			deleted, err := postgres.NewNoteRepository(mock).Delete(ctx, "diary.md")

			if tt.wantErr {
				require.ErrorIs(t, err, tt.err)
				assert.Contains(t, err.Error(), postgres.ErrDeleteNote)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantDeleted, deleted)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNoteRepository_Rename(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes old and upserts new", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(deletePattern).WithArgs("a.md").WillReturnResult(pgconn.NewCommandTag("DELETE 1"))
		mock.ExpectQuery(upsertPattern).WithArgs("b.md", "hello").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-b", "b.md", "hello", created, created))
		mock.ExpectCommit()

		note, err := postgres.NewNoteRepository(mock).Rename(ctx, "a.md", "b.md", "hello")

		require.NoError(t, err)
		assert.Equal(t, "b.md", note.Name)
		assert.Equal(t, "hello", note.Content)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same name only upserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(upsertPattern).WithArgs("a.md", "hello").
			WillReturnRows(pgxmock.NewRows(noteColumns).AddRow("id-a", "a.md", "hello", created, created))
		mock.ExpectCommit()

		_, err := postgres.NewNoteRepository(mock).Rename(ctx, "a.md", "a.md", "hello")

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("upsert failure rolls back delete", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(deletePattern).WithArgs("a.md").WillReturnResult(pgconn.NewCommandTag("DELETE 1"))
		mock.ExpectQuery(upsertPattern).WithArgs("b.md", "hello").WillReturnError(errDatabase)
		mock.ExpectRollback()

		note, err := postgres.NewNoteRepository(mock).Rename(ctx, "a.md", "b.md", "hello")

		require.ErrorIs(t, err, errDatabase)
		assert.Nil(t, note)
		assert.Contains(t, err.Error(), postgres.ErrRenameNote)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns notes in order", func(t *testing.T) {
		mock := newMock(t)
		later := created.Add(time.Minute)
		mock.ExpectQuery(listPattern).WillReturnRows(pgxmock.NewRows(noteColumns).
			AddRow("id-a", "a.md", "alpha", created, later).
			AddRow("id-b", "b.md", "beta", later, later))

		notes, err := postgres.NewNoteRepository(mock).List(ctx)

		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "a.md", notes[0].Name)
		assert.Equal(t, later, notes[0].UpdatedAt)
		assert.Equal(t, "b.md", notes[1].Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty store", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(listPattern).WillReturnRows(pgxmock.NewRows(noteColumns))

		notes, err := postgres.NewNoteRepository(mock).List(ctx)

		require.NoError(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(listPattern).WillReturnError(errDatabase)

		notes, err := postgres.NewNoteRepository(mock).List(ctx)

		require.ErrorIs(t, err, errDatabase)
		assert.Nil(t, notes)
	})

	t.Run("row error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(listPattern).WillReturnRows(pgxmock.NewRows(noteColumns).
			AddRow("id-a", "a.md", "alpha", created, created).
			RowError(0, errDatabase))

		_, err := postgres.NewNoteRepository(mock).List(ctx)

		require.Error(t, err)
	})
}

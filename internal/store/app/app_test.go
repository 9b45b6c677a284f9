package app_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	fsstorage "notesync/internal/store/adapters/storage"
	"notesync/internal/store/app"
	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/storage"
)

var errDatabase = errors.New("database error")

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) Upsert(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Delete(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockNoteRepository) Rename(ctx context.Context, oldName, newName, content string) (*entities.Note, error) {
	args := m.Called(ctx, oldName, newName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) List(ctx context.Context) ([]*entities.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Save(ctx context.Context, name string, r io.Reader) error {
	return m.Called(ctx, name, r).Error(0)
}

func (m *mockImageStorage) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockImageStorage) Dir() string {
	return m.Called().String(0)
}

func TestUpsertNotes(t *testing.T) {
	batch := []entities.NoteInput{{Name: "diary.md", Content: "hello"}}
	stored := []*entities.Note{{ID: "1", Name: "diary.md", Content: "hello"}}

	tests := []struct {
		name         string
		batch        []entities.NoteInput
		setupMocks   func(repo *mockNoteRepository, b *mockBroadcaster)
		expected     []*entities.Note
		expectedErr  error
		expectFailed bool
	}{
		{
			name:  "success - stored and broadcast",
			batch: batch,
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Upsert", mock.Anything, batch).Return(stored, nil).Once()
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
			expected: stored,
		},
		{
			name:  "success - broadcast failure does not fail request",
			batch: batch,
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Upsert", mock.Anything, batch).Return(stored, nil).Once()
				b.On("Broadcast", mock.Anything).Return(errors.New("hub down")).Once()
			},
			expected: stored,
		},
		{
			name:  "success - empty batch still broadcasts",
			batch: []entities.NoteInput{},
			setupMocks: func(_ *mockNoteRepository, b *mockBroadcaster) {
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
		},
		{
			name:  "error - repository failure still broadcasts",
			batch: batch,
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Upsert", mock.Anything, batch).Return(nil, errDatabase).Once()
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
			expectedErr:  errDatabase,
			expectFailed: true,
		},
		{
			name:         "error - empty name",
			batch:        []entities.NoteInput{{Name: " ", Content: "x"}},
			setupMocks:   func(*mockNoteRepository, *mockBroadcaster) {},
			expectedErr:  app.ErrInvalidParams,
			expectFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockNoteRepository)
			b := new(mockBroadcaster)
			tt.setupMocks(repo, b)

			notes, err := app.NewNoteUseCase(repo, b).UpsertNotes(context.Background(), tt.batch)

			if tt.expectFailed {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, notes)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, notes)
			}
			repo.AssertExpectations(t)
			b.AssertExpectations(t)
		})
	}
}

func TestUpsertBroadcastSurvivesCanceledRequest(t *testing.T) {
	repo := new(mockNoteRepository)
	b := new(mockBroadcaster)
	batch := []entities.NoteInput{{Name: "a.md"}}

	repo.On("Upsert", mock.Anything, batch).Return([]*entities.Note{}, nil).Once()
	b.On("Broadcast", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := app.NewNoteUseCase(repo, b).UpsertNotes(ctx, batch)
	require.NoError(t, err)
	b.AssertExpectations(t)
}

func TestDeleteNote(t *testing.T) {
	tests := []struct {
		name        string
		note        string
		setupMocks  func(repo *mockNoteRepository, b *mockBroadcaster)
		expected    bool
		expectedErr error
	}{
		{
			name: "existing note",
			note: "diary.md",
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Delete", mock.Anything, "diary.md").Return(true, nil).Once()
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
			expected: true,
		},
		{
			name: "missing note reports not found and still broadcasts",
			note: "ghost.md",
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Delete", mock.Anything, "ghost.md").Return(false, nil).Once()
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
			expected: false,
		},
		{
			name: "repository failure",
			note: "diary.md",
			setupMocks: func(repo *mockNoteRepository, b *mockBroadcaster) {
				repo.On("Delete", mock.Anything, "diary.md").Return(false, errDatabase).Once()
				b.On("Broadcast", mock.Anything).Return(nil).Once()
			},
			expectedErr: errDatabase,
		},
		{
			name:        "empty name",
			note:        "",
			setupMocks:  func(*mockNoteRepository, *mockBroadcaster) {},
			expectedErr: app.ErrInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockNoteRepository)
			b := new(mockBroadcaster)
			tt.setupMocks(repo, b)

			deleted, err := app.NewNoteUseCase(repo, b).DeleteNote(context.Background(), tt.note)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, deleted)
			repo.AssertExpectations(t)
			b.AssertExpectations(t)
		})
	}
}

func TestRenameNote(t *testing.T) {
	renamed := &entities.Note{ID: "2", Name: "b.md", Content: "hello"}

	t.Run("success", func(t *testing.T) {
		repo := new(mockNoteRepository)
		b := new(mockBroadcaster)
		repo.On("Rename", mock.Anything, "a.md", "b.md", "hello").Return(renamed, nil).Once()
		b.On("Broadcast", mock.Anything).Return(nil).Once()

		note, err := app.NewNoteUseCase(repo, b).RenameNote(context.Background(), "a.md", "b.md", "hello")

		require.NoError(t, err)
		assert.Equal(t, renamed, note)
		repo.AssertExpectations(t)
		b.AssertExpectations(t)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(mockNoteRepository)
		b := new(mockBroadcaster)
		repo.On("Rename", mock.Anything, "a.md", "b.md", "hello").Return(nil, errDatabase).Once()
		b.On("Broadcast", mock.Anything).Return(nil).Once()

		_, err := app.NewNoteUseCase(repo, b).RenameNote(context.Background(), "a.md", "b.md", "hello")

		require.ErrorIs(t, err, errDatabase)
		b.AssertExpectations(t)
	})

	t.Run("missing names", func(t *testing.T) {
		repo := new(mockNoteRepository)

		_, err := app.NewNoteUseCase(repo, nil).RenameNote(context.Background(), "", "b.md", "x")

		require.ErrorIs(t, err, app.ErrInvalidParams)
		repo.AssertNotCalled(t, "Rename", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListNotesAndSnapshot(t *testing.T) {
	now := time.Now()
	notes := []*entities.Note{{ID: "1", Name: "a.md", CreatedAt: now, UpdatedAt: now}}

	repo := new(mockNoteRepository)
	repo.On("List", mock.Anything).Return(notes, nil).Twice()
	uc := app.NewNoteUseCase(repo, nil)

	got, err := uc.ListNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notes, got)

	snapshot, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)

	failing := new(mockNoteRepository)
	failing.On("List", mock.Anything).Return(nil, errDatabase).Once()
	_, err = app.NewNoteUseCase(failing, nil).ListNotes(context.Background())
	require.ErrorIs(t, err, errDatabase)
}

func TestUploadImage(t *testing.T) {
	t.Run("sanitizes name", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Save", mock.Anything, "pic_1.png", mock.Anything).Return(nil).Once()

		name, err := app.NewImageUseCase(st).UploadImage(context.Background(), "pic 1.png", strings.NewReader("data"))

		require.NoError(t, err)
		assert.Equal(t, "pic_1.png", name)
		st.AssertExpectations(t)
	})

	t.Run("strips directories", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Save", mock.Anything, "evil.png", mock.Anything).Return(nil).Once()

		name, err := app.NewImageUseCase(st).UploadImage(context.Background(), "../../evil.png", strings.NewReader("x"))

		require.NoError(t, err)
		assert.Equal(t, "evil.png", name)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := app.NewImageUseCase(new(mockImageStorage)).UploadImage(context.Background(), "", strings.NewReader("x"))
		require.ErrorIs(t, err, app.ErrInvalidParams)
	})

	t.Run("storage failure", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Save", mock.Anything, "a.png", mock.Anything).Return(errors.New("disk full")).Once()

		_, err := app.NewImageUseCase(st).UploadImage(context.Background(), "a.png", strings.NewReader("x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, app.ErrInvalidParams)
	})

	t.Run("dot names rejected by file storage", func(t *testing.T) {
		st, err := fsstorage.NewFileStorage(t.TempDir())
		require.NoError(t, err)
		uc := app.NewImageUseCase(st)

		for _, name := range []string{"..", ".", "dir/.."} {
			_, err := uc.UploadImage(context.Background(), name, strings.NewReader("x"))
			require.ErrorIs(t, err, app.ErrInvalidParams, name)
			require.ErrorIs(t, err, storage.ErrInvalidImageName, name)
		}
	})
}

func TestDeleteImage(t *testing.T) {
	t.Run("deletes sanitized name", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Delete", mock.Anything, "my_file.png").Return(nil).Once()

		name, err := app.NewImageUseCase(st).DeleteImage(context.Background(), "my file.png")

		require.NoError(t, err)
		assert.Equal(t, "my_file.png", name)
		st.AssertExpectations(t)
	})

	t.Run("missing image", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Delete", mock.Anything, "gone.png").Return(storage.ErrImageNotFound).Once()

		name, err := app.NewImageUseCase(st).DeleteImage(context.Background(), "gone.png")

		require.ErrorIs(t, err, app.ErrNotFound)
		assert.Equal(t, "gone.png", name)
	})

	t.Run("storage failure", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Delete", mock.Anything, "a.png").Return(errors.New("permission denied")).Once()

		_, err := app.NewImageUseCase(st).DeleteImage(context.Background(), "a.png")

		require.Error(t, err)
		assert.NotErrorIs(t, err, app.ErrNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		st := new(mockImageStorage)
		st.On("Delete", mock.Anything, "..").Return(storage.ErrInvalidImageName).Once()

		_, err := app.NewImageUseCase(st).DeleteImage(context.Background(), "..")

		require.ErrorIs(t, err, app.ErrInvalidParams)
	})
}

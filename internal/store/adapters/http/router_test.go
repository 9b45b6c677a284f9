package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	storehttp "notesync/internal/store/adapters/http"
	"notesync/internal/store/app"
	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/storage"
)

type mockNotesService struct {
	mock.Mock
}

func (m *mockNotesService) UpsertNotes(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNotesService) DeleteNote(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockNotesService) RenameNote(ctx context.Context, oldName, newName, content string) (*entities.Note, error) {
	args := m.Called(ctx, oldName, newName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNotesService) ListNotes(ctx context.Context) ([]*entities.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

type mockImagesService struct {
	mock.Mock
}

func (m *mockImagesService) UploadImage(ctx context.Context, name string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, name, string(data))
	return args.String(0), args.Error(1)
}

func (m *mockImagesService) DeleteImage(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func newApp(t *testing.T, notes *mockNotesService, images *mockImagesService, imagesDir string) *fiber.App {
	t.Helper()
	a := fiber.New()
	storehttp.SetupRouter(a, storehttp.Routes{
		Notes:       notes,
		Images:      images,
		ImagesDir:   imagesDir,
		CORSOrigins: []string{"*"},
	})
	return a
}

func doJSON(t *testing.T, a *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := a.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	a := newApp(t, new(mockNotesService), new(mockImagesService), "")

	status, body := doJSON(t, a, fiber.MethodGet, "/health", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
}

func TestUpdateNotes(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(notes *mockNotesService)
		expectedStatus int
		expectedBody   map[string]any
	}{
		{
			name: "success",
			body: `[{"name":"diary.md","content":"hello"}]`,
			setupMocks: func(notes *mockNotesService) {
				notes.On("UpsertNotes", mock.Anything, []entities.NoteInput{{Name: "diary.md", Content: "hello"}}).
					Return([]*entities.Note{{Name: "diary.md"}}, nil).Once()
			},
			expectedStatus: fiber.StatusOK,
			expectedBody:   map[string]any{"message": "Notes updated successfully", "count": float64(1)},
		},
		{
			name:           "malformed body",
			body:           `{"name":`,
			setupMocks:     func(*mockNotesService) {},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name: "validation error",
			body: `[{"name":"","content":"x"}]`,
			setupMocks: func(notes *mockNotesService) {
				notes.On("UpsertNotes", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: note name is required", app.ErrInvalidParams)).Once()
			},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name: "storage error passes text through",
			body: `[{"name":"a.md","content":"x"}]`,
			setupMocks: func(notes *mockNotesService) {
				notes.On("UpsertNotes", mock.Anything, mock.Anything).
					Return(nil, errors.New("connection reset")).Once()
			},
			expectedStatus: fiber.StatusInternalServerError,
			expectedBody:   map[string]any{"message": "Error updating notes", "error": "connection reset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := new(mockNotesService)
			tt.setupMocks(notes)
			a := newApp(t, notes, new(mockImagesService), "")

			status, body := doJSON(t, a, fiber.MethodPost, "/api/notes/update", tt.body)

			assert.Equal(t, tt.expectedStatus, status)
			for k, v := range tt.expectedBody {
				assert.Equal(t, v, body[k], k)
			}
			notes.AssertExpectations(t)
		})
	}
}

func TestDeleteNote(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		notes := new(mockNotesService)
		notes.On("DeleteNote", mock.Anything, "diary.md").Return(true, nil).Once()
		a := newApp(t, notes, new(mockImagesService), "")

		status, body := doJSON(t, a, fiber.MethodPost, "/api/notes/delete", `{"name":"diary.md"}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Deleted diary.md", body["message"])
		assert.Equal(t, true, body["deleted"])
	})

	t.Run("not found", func(t *testing.T) {
		notes := new(mockNotesService)
		notes.On("DeleteNote", mock.Anything, "ghost.md").Return(false, nil).Once()
		a := newApp(t, notes, new(mockImagesService), "")

		status, body := doJSON(t, a, fiber.MethodPost, "/api/notes/delete", `{"name":"ghost.md"}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "ghost.md not found", body["message"])
		assert.Equal(t, false, body["deleted"])
	})

	t.Run("storage error", func(t *testing.T) {
		notes := new(mockNotesService)
		notes.On("DeleteNote", mock.Anything, "a.md").Return(false, errors.New("timeout")).Once()
		a := newApp(t, notes, new(mockImagesService), "")

		status, body := doJSON(t, a, fiber.MethodPost, "/api/notes/delete", `{"name":"a.md"}`)

		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "timeout", body["error"])
	})
}

func TestRenameNote(t *testing.T) {
	notes := new(mockNotesService)
	notes.On("RenameNote", mock.Anything, "a.md", "b.md", "hello").
		Return(&entities.Note{ID: "1", Name: "b.md", Content: "hello"}, nil).Once()
	a := newApp(t, notes, new(mockImagesService), "")

	status, body := doJSON(t, a, fiber.MethodPost, "/api/notes/rename",
		`{"oldName":"a.md","newName":"b.md","content":"hello"}`)

	assert.Equal(t, fiber.StatusOK, status)
	note, ok := body["note"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b.md", note["name"])
	assert.Equal(t, "1", note["_id"])
	notes.AssertExpectations(t)
}

func TestListNotes(t *testing.T) {
	notes := new(mockNotesService)
	notes.On("ListNotes", mock.Anything).Return([]*entities.Note{{Name: "a.md"}, {Name: "b.md"}}, nil).Once()
	a := newApp(t, notes, new(mockImagesService), "")

	resp, err := a.Test(httptest.NewRequest(fiber.MethodGet, "/api/notes", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []entities.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "b.md", got[1].Name)
}

func multipartRequest(t *testing.T, field, filename, content string) *nethttp.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("other", "value"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/upload-image", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	t.Run("stored under sanitized name", func(t *testing.T) {
		images := new(mockImagesService)
		images.On("UploadImage", mock.Anything, "pic 1.png", "PNGDATA").Return("pic_1.png", nil).Once()
		a := newApp(t, new(mockNotesService), images, "")

		resp, err := a.Test(multipartRequest(t, "file", "pic 1.png", "PNGDATA"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "pic_1.png", body["fileName"])
		images.AssertExpectations(t)
	})

	t.Run("invalid name", func(t *testing.T) {
		images := new(mockImagesService)
		images.On("UploadImage", mock.Anything, "..", "x").
			Return("", fmt.Errorf("%w: %w", app.ErrInvalidParams, storage.ErrInvalidImageName)).Once()
		a := newApp(t, new(mockNotesService), images, "")

		resp, err := a.Test(multipartRequest(t, "file", "..", "x"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no file", func(t *testing.T) {
		a := newApp(t, new(mockNotesService), new(mockImagesService), "")

		resp, err := a.Test(multipartRequest(t, "", "", ""))
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No file uploaded", body["message"])
	})
}

func TestDeleteImage(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		images := new(mockImagesService)
		images.On("DeleteImage", mock.Anything, "pic_1.png").Return("pic_1.png", nil).Once()
		a := newApp(t, new(mockNotesService), images, "")

		status, body := doJSON(t, a, fiber.MethodPost, "/api/delete-image", `{"name":"pic_1.png"}`)

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Deleted pic_1.png", body["message"])
	})

	t.Run("missing", func(t *testing.T) {
		images := new(mockImagesService)
		images.On("DeleteImage", mock.Anything, "gone.png").
			Return("gone.png", fmt.Errorf("%w: gone.png", app.ErrNotFound)).Once()
		a := newApp(t, new(mockNotesService), images, "")

		status, body := doJSON(t, a, fiber.MethodPost, "/api/delete-image", `{"name":"gone.png"}`)

		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "Failed to delete image: gone.png", body["message"])
	})
}

func TestStaticImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic_1.png"), []byte("PNGDATA"), 0o600))
	a := newApp(t, new(mockNotesService), new(mockImagesService), dir)

	resp, err := a.Test(httptest.NewRequest(fiber.MethodGet, "/images/pic_1.png", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "PNGDATA", string(data))
}

func TestUnknownRoute(t *testing.T) {
	a := newApp(t, new(mockNotesService), new(mockImagesService), "")

	status, body := doJSON(t, a, fiber.MethodGet, "/nope", "")

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Route not found", body["message"])
}

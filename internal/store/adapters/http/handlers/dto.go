// Package handlers содержит HTTP-обработчики API хранения заметок и изображений.
package handlers

import (
	"context"
	"io"

	"notesync/internal/store/domain/entities"
)

// NotesService - сценарии работы с заметками.
type NotesService interface {
	UpsertNotes(ctx context.Context, batch []entities.NoteInput) ([]*entities.Note, error)
	DeleteNote(ctx context.Context, name string) (bool, error)
	RenameNote(ctx context.Context, oldName, newName, content string) (*entities.Note, error)
	ListNotes(ctx context.Context) ([]*entities.Note, error)
}

// ImagesService - сценарии работы с изображениями.
type ImagesService interface {
	UploadImage(ctx context.Context, name string, r io.Reader) (string, error)
	DeleteImage(ctx context.Context, name string) (string, error)
}

// DeleteNoteRequest - тело запроса удаления заметки.
type DeleteNoteRequest struct {
	Name string `json:"name"`
}

// RenameNoteRequest - тело запроса переименования заметки.
type RenameNoteRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
	Content string `json:"content"`
}

// DeleteImageRequest - тело запроса удаления изображения.
type DeleteImageRequest struct {
	Name string `json:"name"`
}

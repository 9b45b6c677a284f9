package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notesync/internal/store/app"
	"notesync/internal/store/domain/entities"
	"notesync/pkg/logger"
)

// Константы сообщений.
const (
	LogHandlerUpsertNotes = "handling update notes request"
	LogHandlerDeleteNote  = "handling delete note request"
	LogHandlerRenameNote  = "handling rename note request"

	MsgNotesUpdated = "Notes updated successfully"
	MsgNoteRenamed  = "Note renamed successfully"

	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgUpdateNotes        = "Error updating notes"
	ErrMsgDeleteNote         = "Error deleting note"
	ErrMsgRenameNote         = "Error renaming note"
	ErrMsgListNotes          = "Error listing notes"
)

// NotesHandler обрабатывает запросы к заметкам.
type NotesHandler struct {
	notes NotesService
}

// NewNotesHandler создает NotesHandler.
func NewNotesHandler(notes NotesService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// UpsertNotes сохраняет пакет заметок: POST /api/notes/update.
func (h *NotesHandler) UpsertNotes(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()
	log := logger.Log(reqCtx).With(zap.String("handler", "NotesHandler.UpsertNotes"))
	log.Debug(reqCtx, LogHandlerUpsertNotes)

	var batch []entities.NoteInput
	if err := ctx.Bind().JSON(&batch); err != nil {
		log.Warn(reqCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(ctx, ErrMsgInvalidRequestBody)
	}

	notes, err := h.notes.UpsertNotes(reqCtx, batch)
	if err != nil {
		log.Error(reqCtx, ErrMsgUpdateNotes, zap.Error(err))
		return handleError(ctx, ErrMsgUpdateNotes, err)
	}

	return send(ctx, fiber.StatusOK, fiber.Map{
		"message": MsgNotesUpdated,
		"count":   len(notes),
	})
}

// DeleteNote удаляет заметку: POST /api/notes/delete.
func (h *NotesHandler) DeleteNote(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()
	log := logger.Log(reqCtx).With(zap.String("handler", "NotesHandler.DeleteNote"))
	log.Debug(reqCtx, LogHandlerDeleteNote)

	var req DeleteNoteRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Warn(reqCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(ctx, ErrMsgInvalidRequestBody)
	}

	deleted, err := h.notes.DeleteNote(reqCtx, req.Name)
	if err != nil {
		log.Error(reqCtx, ErrMsgDeleteNote, zap.Error(err))
		return handleError(ctx, ErrMsgDeleteNote, err)
	}

	message := fmt.Sprintf("Deleted %s", req.Name)
	if !deleted {
		message = fmt.Sprintf("%s not found", req.Name)
	}
	return send(ctx, fiber.StatusOK, fiber.Map{
		"message": message,
		"deleted": deleted,
	})
}

// RenameNote атомарно переименовывает заметку: POST /api/notes/rename.
func (h *NotesHandler) RenameNote(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()
	log := logger.Log(reqCtx).With(zap.String("handler", "NotesHandler.RenameNote"))
	log.Debug(reqCtx, LogHandlerRenameNote)

	var req RenameNoteRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Warn(reqCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(ctx, ErrMsgInvalidRequestBody)
	}

	note, err := h.notes.RenameNote(reqCtx, req.OldName, req.NewName, req.Content)
	if err != nil {
		log.Error(reqCtx, ErrMsgRenameNote, zap.Error(err))
		return handleError(ctx, ErrMsgRenameNote, err)
	}

	return send(ctx, fiber.StatusOK, fiber.Map{
		"message": MsgNoteRenamed,
		"note":    note,
	})
}

// ListNotes возвращает всю коллекцию: GET /api/notes.
func (h *NotesHandler) ListNotes(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()

	notes, err := h.notes.ListNotes(reqCtx)
	if err != nil {
		logger.Log(reqCtx).Error(reqCtx, ErrMsgListNotes, zap.Error(err))
		return handleError(ctx, ErrMsgListNotes, err)
	}

	return send(ctx, fiber.StatusOK, notes)
}

// Health отвечает на проверку доступности: GET /health.
func Health(ctx fiber.Ctx) error {
	return send(ctx, fiber.StatusOK, fiber.Map{"status": "OK"})
}

func badRequest(ctx fiber.Ctx, message string) error {
	return send(ctx, fiber.StatusBadRequest, fiber.Map{"message": message})
}

// handleError переводит ошибку сценария в HTTP-ответ.
// Текст ошибки хранилища передается клиенту как есть.
func handleError(ctx fiber.Ctx, message string, err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidParams):
		return send(ctx, fiber.StatusBadRequest, fiber.Map{"message": err.Error()})
	case errors.Is(err, app.ErrNotFound):
		return send(ctx, fiber.StatusNotFound, fiber.Map{"message": message, "error": err.Error()})
	default:
		return send(ctx, fiber.StatusInternalServerError, fiber.Map{"message": message, "error": err.Error()})
	}
}

func send(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

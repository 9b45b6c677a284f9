package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notesync/internal/store/app"
	"notesync/pkg/logger"
)

const (
	// FormFieldFile - имя multipart-поля с изображением.
	FormFieldFile = "file"

	MsgImageUploaded = "Image uploaded"
	MsgNoFile        = "No file uploaded"

	ErrMsgUploadImage = "Error uploading image"
	ErrMsgDeleteImage = "Error deleting image"
)

// ImagesHandler обрабатывает запросы к изображениям.
type ImagesHandler struct {
	images ImagesService
}

// NewImagesHandler создает ImagesHandler.
func NewImagesHandler(images ImagesService) *ImagesHandler {
	return &ImagesHandler{images: images}
}

// UploadImage сохраняет изображение из поля "file": POST /api/upload-image.
func (h *ImagesHandler) UploadImage(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()
	log := logger.Log(reqCtx).With(zap.String("handler", "ImagesHandler.UploadImage"))

	header, err := ctx.FormFile(FormFieldFile)
	if err != nil || header == nil {
		log.Warn(reqCtx, MsgNoFile, zap.Error(err))
		return badRequest(ctx, MsgNoFile)
	}

	file, err := header.Open()
	if err != nil {
		log.Error(reqCtx, ErrMsgUploadImage, zap.Error(err))
		return handleError(ctx, ErrMsgUploadImage, err)
	}
	defer file.Close()

	name, err := h.images.UploadImage(reqCtx, header.Filename, file)
	if err != nil {
		log.Error(reqCtx, ErrMsgUploadImage, zap.Error(err))
		return handleError(ctx, ErrMsgUploadImage, err)
	}

	return send(ctx, fiber.StatusOK, fiber.Map{
		"message":  MsgImageUploaded,
		"fileName": name,
	})
}

// DeleteImage удаляет изображение: POST /api/delete-image.
func (h *ImagesHandler) DeleteImage(ctx fiber.Ctx) error {
	reqCtx := ctx.Context()
	log := logger.Log(reqCtx).With(zap.String("handler", "ImagesHandler.DeleteImage"))

	var req DeleteImageRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Warn(reqCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(ctx, ErrMsgInvalidRequestBody)
	}

	name, err := h.images.DeleteImage(reqCtx, req.Name)
	switch {
	case errors.Is(err, app.ErrNotFound):
		log.Warn(reqCtx, ErrMsgDeleteImage, zap.Error(err))
		return send(ctx, fiber.StatusNotFound, fiber.Map{
			"message": fmt.Sprintf("Failed to delete image: %s", name),
		})
	case err != nil:
		log.Error(reqCtx, ErrMsgDeleteImage, zap.Error(err))
		return handleError(ctx, ErrMsgDeleteImage, err)
	}

	return send(ctx, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("Deleted %s", name),
	})
}

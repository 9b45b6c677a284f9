package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"notesync/internal/store/ports/storage"
	"notesync/pkg/logger"
	"notesync/pkg/naming"
)

// ImageUseCase сохраняет и удаляет изображения заметок.
// Изменения изображений зрителям не рассылаются.
type ImageUseCase struct {
	storage storage.ImageStorage
}

// NewImageUseCase создает ImageUseCase.
func NewImageUseCase(storage storage.ImageStorage) *ImageUseCase {
	return &ImageUseCase{storage: storage}
}

// UploadImage сохраняет изображение под очищенным именем и возвращает это имя.
func (uc *ImageUseCase) UploadImage(ctx context.Context, name string, r io.Reader) (string, error) {
	stored := naming.Sanitize(naming.Base(name))
	if stored == "" {
		return "", fmt.Errorf("%w: image name is required", ErrInvalidParams)
	}

	if err := uc.storage.Save(ctx, stored, r); err != nil {
		if errors.Is(err, storage.ErrInvalidImageName) {
			return "", fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	logger.Log(ctx).Info(ctx, "image uploaded", zap.String("name", stored))
	return stored, nil
}

// DeleteImage удаляет изображение. Для отсутствующего изображения возвращает ErrNotFound.
func (uc *ImageUseCase) DeleteImage(ctx context.Context, name string) (string, error) {
	stored := naming.Sanitize(naming.Base(name))
	if stored == "" {
		return "", fmt.Errorf("%w: image name is required", ErrInvalidParams)
	}

	if err := uc.storage.Delete(ctx, stored); err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			return stored, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		if errors.Is(err, storage.ErrInvalidImageName) {
			return stored, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		return stored, fmt.Errorf("failed to delete image: %w", err)
	}

	logger.Log(ctx).Info(ctx, "image deleted", zap.String("name", stored))
	return stored, nil
}

// ImagesDir возвращает каталог, раздаваемый по /images.
func (uc *ImageUseCase) ImagesDir() string {
	return uc.storage.Dir()
}

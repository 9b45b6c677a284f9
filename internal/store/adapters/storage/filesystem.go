// Package storage хранит изображения в каталоге файловой системы.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"notesync/internal/store/ports/storage"
	"notesync/pkg/logger"
)

const (
	ErrCreateDir   = "failed to create images directory"
	ErrWriteImage  = "failed to write image"
	ErrRemoveImage = "failed to remove image"
)

// FileStorage реализует storage.ImageStorage.
type FileStorage struct {
	dir string
}

var _ storage.ImageStorage = (*FileStorage)(nil)

// NewFileStorage создает каталог dir при необходимости.
func NewFileStorage(dir string) (*FileStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	return &FileStorage{dir: abs}, nil
}

// Dir возвращает абсолютный путь каталога изображений.
func (s *FileStorage) Dir() string {
	return s.dir
}

// Save записывает изображение во временный файл и переименовывает его,
// так что читатели не видят частично записанный файл.
func (s *FileStorage) Save(ctx context.Context, name string, r io.Reader) error {
	log := logger.Log(ctx).With(zap.String("method", "FileStorage.Save"), zap.String("name", name))

	target, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		log.Error(ctx, ErrWriteImage, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrWriteImage, err)
	}
	tmpName := tmp.Name()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		log.Error(ctx, ErrWriteImage, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrWriteImage, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		log.Error(ctx, ErrWriteImage, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrWriteImage, err)
	}

	log.Debug(ctx, "image stored", zap.String("path", target))
	return nil
}

// Delete удаляет изображение. Для отсутствующего файла возвращает storage.ErrImageNotFound.
func (s *FileStorage) Delete(ctx context.Context, name string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", storage.ErrImageNotFound, name)
		}
		logger.Log(ctx).Error(ctx, ErrRemoveImage, zap.String("name", name), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrRemoveImage, err)
	}
	return nil
}

// path не позволяет имени выйти за пределы каталога.
func (s *FileStorage) path(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || base != name {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidImageName, name)
	}
	return filepath.Join(s.dir, base), nil
}

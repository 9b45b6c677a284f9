// Package storage определяет интерфейс хранилища изображений.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrImageNotFound возвращается при удалении отсутствующего изображения.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidImageName возвращается для имени, не являющегося одним элементом пути.
	ErrInvalidImageName = errors.New("invalid image name")
)

// ImageStorage хранит изображения под очищенными именами.
type ImageStorage interface {
	// Save записывает изображение, перезаписывая существующее.
	Save(ctx context.Context, name string, r io.Reader) error
	Delete(ctx context.Context, name string) error
	// Dir возвращает каталог, из которого изображения раздаются статически.
	Dir() string
}

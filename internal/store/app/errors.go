// Package app реализует сценарии сервиса хранения заметок и изображений.
package app

import "errors"

// Ошибки уровня бизнес-логики.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidParams = errors.New("invalid parameters")
)

// Package watcher отслеживает изменения заметок и изображений в хранилище.
package watcher

import "fmt"

// Kind описывает тип изменения файла.
type Kind int

// Типы изменений.
const (
	Created Kind = iota + 1
	Modified
	Deleted
	Renamed
)

// String возвращает имя типа изменения.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event описывает одно изменение в хранилище.
// OldPath заполнен только для Renamed.
type Event struct {
	Kind    Kind
	Path    string
	OldPath string
}

// Source поставляет события изменений клиенту синхронизации.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
}

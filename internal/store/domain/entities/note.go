// Package entities определяет доменные сущности сервиса хранения.
package entities

import "time"

// Note - заметка, идентифицируемая именем исходного файла.
type Note struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteInput - элемент пакета обновления заметок.
type NoteInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Snapshot - полная коллекция заметок, рассылаемая зрителям.
type Snapshot []*Note

// LastModified возвращает время последнего изменения заметки.
func (n *Note) LastModified() time.Time {
	if n.UpdatedAt.IsZero() {
		return n.CreatedAt
	}
	return n.UpdatedAt
}

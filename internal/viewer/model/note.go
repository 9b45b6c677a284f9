// Package model описывает заметки в том виде, в котором их рассылает сервис хранения.
package model

import "time"

// Note - заметка из рассылки.
type Note struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Timestamp возвращает время последнего изменения, а если его нет, время создания.
func (n Note) Timestamp() time.Time {
	if !n.UpdatedAt.IsZero() {
		return n.UpdatedAt
	}
	return n.CreatedAt
}

// Snapshot - полная коллекция заметок на момент рассылки.
type Snapshot []Note

// Package websocket рассылает коллекцию заметок подключенным зрителям по WebSocket.
package websocket

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/broadcast"
	"notesync/pkg/logger"
)

const (
	LogSessionJoined  = "viewer connected"
	LogSessionLeft    = "viewer disconnected"
	LogSessionDropped = "dropping viewer after failed push"
	LogBroadcast      = "broadcasting notes"

	ErrReadSnapshot = "failed to read notes snapshot"
	ErrInitialPush  = "failed to push initial snapshot"
)

// Session - подключенный зритель. Send вызывается не более чем из одной горутины одновременно.
type Session interface {
	ID() string
	Send(ctx context.Context, snapshot entities.Snapshot) error
	Close() error
}

// Hub хранит сессии зрителей и рассылает им снимки коллекции.
// Рассылки и подключения сериализованы, поэтому последний снимок,
// полученный зрителем, прочитан после последней завершенной мутации.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]Session
	source   broadcast.SnapshotSource
}

var _ broadcast.Broadcaster = (*Hub)(nil)

// NewHub создает hub, читающий снимки из source.
func NewHub(source broadcast.SnapshotSource) *Hub {
	return &Hub{
		sessions: make(map[string]Session),
		source:   source,
	}
}

// Join регистрирует сессию и отправляет только ей текущую коллекцию.
func (h *Hub) Join(ctx context.Context, s Session) error {
	log := logger.Log(ctx).With(zap.String("method", "Hub.Join"), zap.String("session", s.ID()))

	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot, err := h.snapshot(ctx)
	if err != nil {
		log.Error(ctx, ErrReadSnapshot, zap.Error(err))
		return err
	}

	if err := s.Send(ctx, snapshot); err != nil {
		log.Warn(ctx, ErrInitialPush, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrInitialPush, err)
	}

	h.sessions[s.ID()] = s
	log.Info(ctx, LogSessionJoined, zap.Int("sessions", len(h.sessions)))
	return nil
}

// Leave удаляет сессию. Повторный вызов безопасен.
func (h *Hub) Leave(ctx context.Context, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[id]; !ok {
		return
	}
	delete(h.sessions, id)
	logger.Log(ctx).Info(ctx, LogSessionLeft, zap.String("session", id), zap.Int("sessions", len(h.sessions)))
}

// Broadcast читает коллекцию и отправляет ее всем сессиям.
// Сессии, которым не удалось отправить снимок, закрываются и удаляются.
func (h *Hub) Broadcast(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("method", "Hub.Broadcast"))

	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot, err := h.snapshot(ctx)
	if err != nil {
		log.Error(ctx, ErrReadSnapshot, zap.Error(err))
		return err
	}

	log.Debug(ctx, LogBroadcast, zap.Int("notes", len(snapshot)), zap.Int("sessions", len(h.sessions)))

	for id, s := range h.sessions {
		if err := s.Send(ctx, snapshot); err != nil {
			log.Warn(ctx, LogSessionDropped, zap.String("session", id), zap.Error(err))
			_ = s.Close()
			delete(h.sessions, id)
		}
	}
	return nil
}

// Count возвращает число подключенных сессий.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close закрывает все сессии.
func (h *Hub) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.sessions {
		_ = s.Close()
		delete(h.sessions, id)
	}
	return nil
}

func (h *Hub) snapshot(ctx context.Context) (entities.Snapshot, error) {
	snapshot, err := h.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrReadSnapshot, err)
	}
	if snapshot == nil {
		snapshot = entities.Snapshot{}
	}
	return snapshot, nil
}

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"notesync/internal/store/domain/entities"
	"notesync/pkg/logger"
)

// Options задает таймауты соединений зрителей.
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// Handler возвращает fiber-обработчик, переводящий запрос в WebSocket-сессию hub.
func (h *Hub) Handler(opts Options) fiber.Handler {
	upgrader := websocket.FastHTTPUpgrader{
		HandshakeTimeout: opts.HandshakeTimeout,
		CheckOrigin:      func(*fasthttp.RequestCtx) bool { return true },
	}

	return func(c fiber.Ctx) error {
		if !websocket.FastHTTPIsWebSocketUpgrade(c.RequestCtx()) {
			return fiber.ErrUpgradeRequired
		}

		requestID, _ := logger.GetRequestID(c.Context())
		base := logger.Log(c.Context())

		return upgrader.Upgrade(c.RequestCtx(), func(conn *websocket.Conn) {
			ctx := logger.NewContext(logger.NewRequestIDContext(context.Background(), requestID), base)
			s := newConnSession(conn, opts.WriteTimeout)
			defer func() { _ = s.Close() }()

			if err := h.Join(ctx, s); err != nil {
				return
			}
			s.drain(ctx)
			h.Leave(ctx, s.ID())
		})
	}
}

// connSession - Session поверх WebSocket-соединения.
type connSession struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func newConnSession(conn *websocket.Conn, writeTimeout time.Duration) *connSession {
	return &connSession{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *connSession) ID() string {
	return s.id
}

// Send записывает снимок JSON-массивом.
func (s *connSession) Send(_ context.Context, snapshot entities.Snapshot) error {
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteJSON(snapshot)
}

func (s *connSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// drain читает входящие кадры до разрыва соединения.
func (s *connSession) drain(ctx context.Context) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			logger.Log(ctx).Debug(ctx, "viewer read loop finished",
				zap.String("session", s.id), zap.Error(err))
			return
		}
	}
}

// Package subscriber получает рассылки коллекции заметок по WebSocket.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notesync/internal/viewer/model"
	"notesync/pkg/logger"
)

// Значения по умолчанию.
const (
	DefaultReconnectDelay   = 2 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Константы для логирования.
const (
	LogConnected       = "subscribed to notes broadcast"
	LogDialFailed      = "failed to connect to broadcast channel"
	LogDisconnected    = "broadcast connection lost"
	LogSnapshot        = "snapshot received"
	LogHandlerFailed   = "failed to handle snapshot"
	LogReconnectWait   = "reconnecting"
	ErrSubscribeClosed = "subscription stopped"
)

// Handler обрабатывает очередную полную коллекцию заметок.
type Handler func(ctx context.Context, snapshot model.Snapshot) error

// Options настраивает Subscriber.
type Options struct {
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// Subscriber подключается к каналу рассылки и переподключается после обрыва.
// После каждого подключения сервер присылает текущую коллекцию целиком.
type Subscriber struct {
	url    string
	delay  time.Duration
	dialer *websocket.Dialer
}

// New создает Subscriber для адреса url вида ws://host/ws.
func New(url string, opts Options) *Subscriber {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}

	return &Subscriber{
		url:    url,
		delay:  opts.ReconnectDelay,
		dialer: &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
	}
}

// Run передает каждую полученную коллекцию в handle до отмены ctx.
// Ошибки handle журналируются и не разрывают соединение.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	log := logger.Log(ctx).With(zap.String("method", "Subscriber.Run"), zap.String("url", s.url))

	for {
		conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%s: %w", ErrSubscribeClosed, ctx.Err())
			}
			log.Warn(ctx, LogDialFailed, zap.Error(err))
		} else {
			log.Info(ctx, LogConnected)
			err = s.consume(ctx, conn, handle)
			if ctx.Err() != nil {
				return fmt.Errorf("%s: %w", ErrSubscribeClosed, ctx.Err())
			}
			log.Warn(ctx, LogDisconnected, zap.Error(err))
		}

		log.Info(ctx, LogReconnectWait, zap.Duration("delay", s.delay))
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", ErrSubscribeClosed, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, conn *websocket.Conn, handle Handler) error {
	log := logger.Log(ctx).With(zap.String("method", "Subscriber.consume"))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		var snapshot model.Snapshot
		if err := conn.ReadJSON(&snapshot); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("server closed connection")
			}
			return err
		}

		log.Debug(ctx, LogSnapshot, zap.Int("notes", len(snapshot)))
		if err := handle(ctx, snapshot); err != nil {
			log.Error(ctx, LogHandlerFailed, zap.Error(err))
		}
	}
}

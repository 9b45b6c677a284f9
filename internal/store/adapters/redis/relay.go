// Package redis ретранслирует оповещения об изменении заметок между экземплярами сервиса через Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notesync/internal/store/ports/broadcast"
	"notesync/pkg/logger"
)

const (
	LogRelaySubscribed = "subscribed to notes change channel"
	LogRelayStopped    = "notes change relay stopped"
	LogForeignChange   = "rebroadcasting change from another instance"

	ErrSubscribe     = "failed to subscribe to change channel"
	ErrPublishChange = "failed to publish change notice"
	ErrDecodeNotice  = "failed to decode change notice"
	ErrAlreadyActive = "relay already started"
)

// PubSub - операции Redis, нужные ретранслятору.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *goredis.PubSub
}

// notice - оповещение об изменении коллекции.
type notice struct {
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Relay выполняет локальную рассылку и оповещает остальные экземпляры.
type Relay struct {
	local      broadcast.Broadcaster
	client     PubSub
	channel    string
	instanceID string

	mu     sync.Mutex
	sub    *goredis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

var _ broadcast.Broadcaster = (*Relay)(nil)

// NewRelay создает ретранслятор для local.
func NewRelay(local broadcast.Broadcaster, client PubSub, channel string) *Relay {
	return &Relay{
		local:      local,
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// InstanceID возвращает идентификатор этого экземпляра в оповещениях.
func (r *Relay) InstanceID() string {
	return r.instanceID
}

// Broadcast рассылает коллекцию локальным зрителям и публикует оповещение.
func (r *Relay) Broadcast(ctx context.Context) error {
	localErr := r.local.Broadcast(ctx)

	payload, err := json.Marshal(notice{Origin: r.instanceID, At: time.Now().UTC()})
	if err != nil {
		return errors.Join(localErr, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload); err != nil {
		logger.Log(ctx).Warn(ctx, ErrPublishChange, zap.String("channel", r.channel), zap.Error(err))
		return errors.Join(localErr, fmt.Errorf("%s: %w", ErrPublishChange, err))
	}
	return localErr
}

// Start подписывается на канал и в фоне рассылает локально изменения других экземпляров.
// Возвращает ошибку, если подписка не подтверждена.
func (r *Relay) Start(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("method", "Relay.Start"), zap.String("channel", r.channel))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return errors.New(ErrAlreadyActive)
	}

	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		log.Error(ctx, ErrSubscribe, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSubscribe, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.sub = sub
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(runCtx, sub.Channel(), r.done)

	log.Info(ctx, LogRelaySubscribed, zap.String("instance", r.instanceID))
	return nil
}

func (r *Relay) loop(ctx context.Context, messages <-chan *goredis.Message, done chan struct{}) {
	defer close(done)
	log := logger.Log(ctx).With(zap.String("method", "Relay.loop"))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var n notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.Warn(ctx, ErrDecodeNotice, zap.Error(err))
				continue
			}
			if n.Origin == r.instanceID {
				continue
			}

			reqCtx := logger.NewRequestIDContext(ctx, "")
			log.Debug(reqCtx, LogForeignChange, zap.String("origin", n.Origin))
			if err := r.local.Broadcast(reqCtx); err != nil {
				log.Warn(reqCtx, LogForeignChange, zap.Error(err))
			}
		}
	}
}

// Close отменяет подписку и дожидается завершения фонового цикла.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	sub, cancel, done := r.sub, r.cancel, r.done
	r.sub, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if sub == nil {
		return nil
	}

	cancel()
	err := sub.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}

	logger.Log(ctx).Info(ctx, LogRelayStopped)
	return err
}

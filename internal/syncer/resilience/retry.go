// Package resilience содержит политику повторных попыток для вызовов сервиса хранения.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Policy содержит настройки повторных попыток.
type Policy struct {
	// Attempts - количество попыток, включая первую. Значения меньше 1 означают одну попытку.
	Attempts int
	// InitialBackoff - задержка перед второй попыткой.
	InitialBackoff time.Duration
	// MaxBackoff - верхняя граница задержки.
	MaxBackoff time.Duration
	// BackoffFactor - множитель экспоненциального отступа.
	BackoffFactor float64
	// Retryable решает, стоит ли повторять вызов после ошибки.
	Retryable func(error) bool
}

// SingleAttempt возвращает политику без повторов.
func SingleAttempt() Policy {
	return Policy{
		Attempts:      1,
		BackoffFactor: 2.0,
		Retryable:     IsTransient,
	}
}

// ErrContextCanceled возвращается, когда контекст отменен во время ожидания перед повтором.
var ErrContextCanceled = errors.New("context was canceled during retry")

// IsTransient считает повторяемыми все ошибки, кроме отмены контекста.
func IsTransient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Константы для логирования.
const (
	LogRetryAttempt     = "retry attempt"
	LogRetrySuccess     = "retry succeeded"
	LogRetryMaxAttempts = "retry max attempts reached"
)

// Retry выполняет операции согласно политике.
type Retry struct {
	name   string
	policy Policy
}

// NewRetry создает новый экземпляр retry механизма.
func NewRetry(name string, policy Policy) *Retry {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &Retry{name: name, policy: policy}
}

// Attempts возвращает максимальное количество попыток.
func (r *Retry) Attempts() int {
	return r.policy.Attempts
}

// Execute вызывает operation, пока она не завершится успешно, ошибка не станет
// неповторяемой или не закончатся попытки.
func (r *Retry) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	log := logger.Log(ctx).With(zap.String("retry", r.name))

	backoff := r.policy.InitialBackoff
	var err error

	for attempt := 1; ; attempt++ {
		err = operation(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info(ctx, LogRetrySuccess, zap.Int("attempts", attempt))
			}
			return nil
		}

		if !r.policy.Retryable(err) {
			return err
		}

		if attempt >= r.policy.Attempts {
			if r.policy.Attempts > 1 {
				log.Warn(ctx, LogRetryMaxAttempts, zap.Int("attempts", attempt), zap.Error(err))
			}
			return err
		}

		log.Info(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}

		backoff = time.Duration(float64(backoff) * r.policy.BackoffFactor)
		if r.policy.MaxBackoff > 0 && backoff > r.policy.MaxBackoff {
			backoff = r.policy.MaxBackoff
		}
	}
}

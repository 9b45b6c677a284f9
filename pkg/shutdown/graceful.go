// Package shutdown ждет сигнал завершения и выполняет хуки остановки в рамках таймаута.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Wait блокирует выполнение до SIGINT, SIGTERM или отмены ctx,
// затем параллельно выполняет хуки и ждет их не дольше timeout.
// Возвращает ошибки хуков, завершившихся с ошибкой.
func Wait(ctx context.Context, timeout time.Duration, hooks ...func(context.Context) error) []error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	<-sigCtx.Done()
	stop()

	return Run(timeout, hooks...)
}

// Run выполняет хуки параллельно в рамках timeout.
func Run(timeout time.Duration, hooks ...func(context.Context) error) []error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var timeoutErr error
	select {
	case <-done:
	case <-ctx.Done():
		timeoutErr = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	result := append([]error(nil), errs...)
	if timeoutErr != nil {
		result = append(result, timeoutErr)
	}
	return result
}

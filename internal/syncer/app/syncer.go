// Package app содержит сценарии клиента синхронизации хранилища заметок.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"notesync/internal/syncer/client"
	"notesync/internal/syncer/extractor"
	"notesync/internal/syncer/resilience"
	"notesync/internal/syncer/watcher"
	"notesync/pkg/logger"
	"notesync/pkg/naming"
)

// Константы для логирования.
const (
	LogBackendHealthy     = "backend is healthy"
	LogBackendUnreachable = "backend is not reachable, sync disabled"
	LogSyncDisabled       = "sync disabled, skipping event"
	LogNotePushed         = "note pushed"
	LogNoteDeleted        = "note deleted"
	LogNoteAbsent         = "note was not stored"
	LogNoteRenamed        = "note renamed"
	LogImageUploaded      = "image uploaded"
	LogImageDeleted       = "image deleted"
	LogWatcherError       = "watcher error"
	LogReadNoteFailed     = "failed to read note"
	LogRunStopped         = "sync loop stopped"

	ErrPushNote    = "failed to push note"
	ErrDeleteNote  = "failed to delete note"
	ErrRenameNote  = "failed to rename note"
	ErrUploadImage = "failed to upload image"
	ErrDeleteImage = "failed to delete image"
)

// StoreAPI - операции сервиса хранения, которые использует клиент синхронизации.
type StoreAPI interface {
	Health(ctx context.Context) error
	UpsertNotes(ctx context.Context, notes []client.NoteInput) (int, error)
	DeleteNote(ctx context.Context, name string) (bool, error)
	RenameNote(ctx context.Context, oldName, newName, content string) error
	UploadImage(ctx context.Context, name string, data []byte) (string, error)
	DeleteImage(ctx context.Context, name string) error
}

// AssetResolver находит изображения, встроенные в заметку.
type AssetResolver interface {
	Resolve(ctx context.Context, notePath, content string) []extractor.Asset
}

// Options настраивает Syncer.
type Options struct {
	// RequestTimeout ограничивает каждый вызов сервиса хранения.
	RequestTimeout time.Duration
	// Retry задает политику повторов. По умолчанию одна попытка.
	Retry resilience.Policy
}

// Syncer переносит изменения хранилища в сервис хранения.
// Ошибки сети журналируются и не прерывают обработку следующих событий.
type Syncer struct {
	api      StoreAPI
	assets   AssetResolver
	retry    *resilience.Retry
	timeout  time.Duration
	readFile func(string) ([]byte, error)
	enabled  atomic.Bool
}

// New создает Syncer. До успешного CheckHealth все операции пропускаются.
func New(api StoreAPI, assets AssetResolver, opts Options) *Syncer {
	policy := opts.Retry
	if policy.Retryable == nil {
		policy.Retryable = Retryable
	}

	return &Syncer{
		api:      api,
		assets:   assets,
		retry:    resilience.NewRetry("store-api", policy),
		timeout:  opts.RequestTimeout,
		readFile: os.ReadFile,
	}
}

// Retryable повторяет вызовы только при недоступности сервиса или ошибках 5xx.
func Retryable(err error) bool {
	if errors.Is(err, client.ErrUnreachable) {
		return true
	}
	var statusErr *client.StatusError
	return errors.As(err, &statusErr) && statusErr.Code >= http.StatusInternalServerError
}

// Enabled сообщает, включена ли синхронизация.
func (s *Syncer) Enabled() bool {
	return s.enabled.Load()
}

// CheckHealth выполняет одну проверку доступности сервиса. При неудаче синхронизация
// отключается до конца сеанса.
func (s *Syncer) CheckHealth(ctx context.Context) bool {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.CheckHealth"))

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.api.Health(callCtx); err != nil {
		log.Warn(ctx, LogBackendUnreachable, zap.Error(err))
		s.enabled.Store(false)
		return false
	}

	log.Info(ctx, LogBackendHealthy)
	s.enabled.Store(true)
	return true
}

// Run обрабатывает события source по одному до закрытия канала событий или отмены ctx.
func (s *Syncer) Run(ctx context.Context, source watcher.Source) {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.Run"))
	defer log.Info(ctx, LogRunStopped)

	events := source.Events()
	errs := source.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn(ctx, LogWatcherError, zap.Error(err))
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Handle(logger.NewEventContext(ctx, ev.Kind.String()), ev)
		}
	}
}

// Handle направляет одно событие хранилища соответствующему обработчику.
func (s *Syncer) Handle(ctx context.Context, ev watcher.Event) {
	log := logger.Log(ctx).With(
		zap.String("method", "Syncer.Handle"),
		zap.Stringer("kind", ev.Kind),
		zap.String("path", ev.Path))

	if !s.Enabled() {
		log.Debug(ctx, LogSyncDisabled)
		return
	}

	switch ev.Kind {
	case watcher.Created, watcher.Modified:
		if !naming.IsNote(ev.Path) {
			return
		}
		content, err := s.readFile(ev.Path)
		if err != nil {
			log.Warn(ctx, LogReadNoteFailed, zap.Error(err))
			return
		}
		s.OnNoteChanged(ctx, ev.Path, string(content))
	case watcher.Deleted:
		switch {
		case naming.IsNote(ev.Path):
			s.OnNoteDeleted(ctx, ev.Path)
		case naming.IsImage(ev.Path):
			s.OnImageDeleted(ctx, ev.Path)
		}
	case watcher.Renamed:
		content, err := s.readFile(ev.Path)
		if err != nil {
			log.Warn(ctx, LogReadNoteFailed, zap.Error(err))
			return
		}
		s.OnNoteRenamed(ctx, ev.OldPath, ev.Path, string(content))
	}
}

// OnNoteChanged загружает встроенные изображения, затем отправляет заметку.
func (s *Syncer) OnNoteChanged(ctx context.Context, path, content string) {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.OnNoteChanged"), zap.String("path", path))
	if !s.Enabled() {
		log.Debug(ctx, LogSyncDisabled)
		return
	}

	s.uploadImages(ctx, path, content)

	note := client.NoteInput{Name: naming.Base(path), Content: content}
	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.api.UpsertNotes(ctx, []client.NoteInput{note})
		return err
	})
	if err != nil {
		log.Error(ctx, ErrPushNote, zap.String("name", note.Name), zap.Error(err))
		return
	}
	log.Info(ctx, LogNotePushed, zap.String("name", note.Name))
}

// OnNoteDeleted удаляет заметку по имени файла.
func (s *Syncer) OnNoteDeleted(ctx context.Context, path string) {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.OnNoteDeleted"), zap.String("path", path))
	if !s.Enabled() {
		log.Debug(ctx, LogSyncDisabled)
		return
	}

	name := naming.Base(path)
	var deleted bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.api.DeleteNote(ctx, name)
		return err
	})
	switch {
	case err != nil:
		log.Error(ctx, ErrDeleteNote, zap.String("name", name), zap.Error(err))
	case !deleted:
		log.Info(ctx, LogNoteAbsent, zap.String("name", name))
	default:
		log.Info(ctx, LogNoteDeleted, zap.String("name", name))
	}
}

// OnImageDeleted удаляет изображение по очищенному имени файла.
func (s *Syncer) OnImageDeleted(ctx context.Context, path string) {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.OnImageDeleted"), zap.String("path", path))
	if !s.Enabled() {
		log.Debug(ctx, LogSyncDisabled)
		return
	}

	name := naming.Sanitize(naming.Base(path))
	err := s.call(ctx, func(ctx context.Context) error {
		return s.api.DeleteImage(ctx, name)
	})
	if err != nil {
		log.Error(ctx, ErrDeleteImage, zap.String("name", name), zap.Error(err))
		return
	}
	log.Info(ctx, LogImageDeleted, zap.String("name", name))
}

// OnNoteRenamed загружает изображения новой заметки и заменяет старую запись новой.
func (s *Syncer) OnNoteRenamed(ctx context.Context, oldPath, newPath, content string) {
	log := logger.Log(ctx).With(
		zap.String("method", "Syncer.OnNoteRenamed"),
		zap.String("old_path", oldPath),
		zap.String("path", newPath))
	if !s.Enabled() {
		log.Debug(ctx, LogSyncDisabled)
		return
	}

	s.uploadImages(ctx, newPath, content)

	oldName, newName := naming.Base(oldPath), naming.Base(newPath)
	err := s.call(ctx, func(ctx context.Context) error {
		return s.api.RenameNote(ctx, oldName, newName, content)
	})
	if err != nil {
		log.Error(ctx, ErrRenameNote, zap.Error(err))
		return
	}
	log.Info(ctx, LogNoteRenamed, zap.String("old_name", oldName), zap.String("name", newName))
}

// uploadImages загружает изображения по порядку ссылок, дожидаясь каждой загрузки.
func (s *Syncer) uploadImages(ctx context.Context, notePath, content string) {
	log := logger.Log(ctx).With(zap.String("method", "Syncer.uploadImages"))

	for _, asset := range s.assets.Resolve(ctx, notePath, content) {
		name := naming.Base(asset.Reference)
		var stored string
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			stored, err = s.api.UploadImage(ctx, name, asset.Data)
			return err
		})
		if err != nil {
			log.Error(ctx, ErrUploadImage, zap.String("reference", asset.Reference), zap.Error(err))
			continue
		}
		log.Info(ctx, LogImageUploaded, zap.String("reference", asset.Reference), zap.String("stored", stored))
	}
}

func (s *Syncer) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.retry.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := s.withTimeout(ctx)
		defer cancel()
		return fn(callCtx)
	})
}

func (s *Syncer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"notesync/pkg/logger"
	"notesync/pkg/naming"
)

// DefaultIgnore содержит шаблоны служебных каталогов, которые не синхронизируются.
var DefaultIgnore = []string{".obsidian/**", ".git/**", ".trash/**"}

// DefaultPairingWindow - время ожидания Create после Rename.
const DefaultPairingWindow = 100 * time.Millisecond

const errorBuffer = 16

// Ошибки watcher.
var (
	ErrCreateWatcher = errors.New("failed to create file watcher")
	ErrWatchDir      = errors.New("failed to watch directory")
	ErrBadPattern    = errors.New("invalid ignore pattern")
	ErrStarted       = errors.New("watcher already started")
)

// Константы для логирования.
const (
	LogWatchStarted   = "watching vault"
	LogWatchStopped   = "vault watcher stopped"
	LogDirAdded       = "directory added to watch list"
	LogFsnotifyError  = "fsnotify error"
	LogEventDelivered = "vault change detected"
)

// Options настраивает Watcher.
type Options struct {
	Ignore        []string
	PairingWindow time.Duration
}

// Watcher рекурсивно отслеживает каталог хранилища через fsnotify.
type Watcher struct {
	root   string
	ignore []string
	window time.Duration

	fs     *fsnotify.Watcher
	events chan Event
	errors chan error

	startOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

var _ Source = (*Watcher)(nil)

// New создает Watcher для каталога root и добавляет в наблюдение все его подкаталоги.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchDir, err)
	}

	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}

	window := opts.PairingWindow
	if window <= 0 {
		window = DefaultPairingWindow
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateWatcher, err)
	}

	w := &Watcher{
		root:   abs,
		ignore: ignore,
		window: window,
		fs:     fw,
		events: make(chan Event),
		errors: make(chan error, errorBuffer),
		done:   make(chan struct{}),
	}

	if err := w.addRecursive(context.Background(), abs); err != nil {
		_ = fw.Close()
		return nil, err
	}

	return w, nil
}

// Root возвращает абсолютный путь хранилища.
func (w *Watcher) Root() string {
	return w.root
}

// Events возвращает канал событий. Канал закрывается после остановки Watcher.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors возвращает канал ошибок fsnotify.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start запускает цикл обработки событий до отмены ctx или вызова Close.
func (w *Watcher) Start(ctx context.Context) error {
	err := ErrStarted
	w.startOnce.Do(func() {
		err = nil
		logger.Log(ctx).Info(ctx, LogWatchStarted, zap.String("root", w.root))
		go w.run(ctx)
	})
	return err
}

// Close останавливает Watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) addRecursive(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("%w: %w", ErrWatchDir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("%w %s: %w", ErrWatchDir, path, err)
		}
		logger.Log(ctx).Debug(ctx, LogDirAdded, zap.String("dir", path))
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// run переводит события fsnotify в события хранилища. Исходящие события
// копятся в очереди, поэтому медленный потребитель не блокирует fsnotify.
func (w *Watcher) run(ctx context.Context) {
	log := logger.Log(ctx).With(zap.String("method", "Watcher.run"))

	defer close(w.events)
	defer func() {
		log.Info(ctx, LogWatchStopped)
	}()

	var (
		queue   []Event
		held    string
		timer   *time.Timer
		timeout <-chan time.Time
	)

	flushHeld := func() {
		if held == "" {
			return
		}
		queue = append(queue, Event{Kind: Deleted, Path: held})
		held = ""
		if timer != nil {
			timer.Stop()
		}
		timeout = nil
	}

	for {
		var out chan Event
		var next Event
		if len(queue) > 0 {
			out = w.events
			next = queue[0]
		}

		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case out <- next:
			queue = queue[1:]
			log.Debug(ctx, LogEventDelivered,
				zap.Stringer("kind", next.Kind),
				zap.String("path", next.Path))
		case <-timeout:
			flushHeld()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Error(ctx, LogFsnotifyError, zap.Error(err))
			select {
			case w.errors <- err:
			default:
			}
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) {
				continue
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					flushHeld()
					if err := w.addRecursive(ctx, ev.Name); err != nil {
						log.Warn(ctx, ErrWatchDir.Error(), zap.String("dir", ev.Name), zap.Error(err))
					}
					continue
				}
			}

			switch {
			case ev.Has(fsnotify.Rename):
				flushHeld()
				if tracked(ev.Name) {
					held = ev.Name
					if timer == nil {
						timer = time.NewTimer(w.window)
					} else {
						timer.Reset(w.window)
					}
					timeout = timer.C
				}
			case ev.Has(fsnotify.Create):
				if held != "" && naming.IsNote(held) && naming.IsNote(ev.Name) {
					queue = append(queue, Event{Kind: Renamed, Path: ev.Name, OldPath: held})
					held = ""
					timer.Stop()
					timeout = nil
					continue
				}
				flushHeld()
				if naming.IsNote(ev.Name) {
					queue = append(queue, Event{Kind: Created, Path: ev.Name})
				}
			case ev.Has(fsnotify.Remove):
				flushHeld()
				if tracked(ev.Name) {
					queue = append(queue, Event{Kind: Deleted, Path: ev.Name})
				}
			case ev.Has(fsnotify.Write):
				flushHeld()
				if naming.IsNote(ev.Name) {
					queue = append(queue, Event{Kind: Modified, Path: ev.Name})
				}
			}
		}
	}
}

func tracked(path string) bool {
	return naming.IsNote(path) || naming.IsImage(path)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notesync/internal/viewer/model"
	"notesync/internal/viewer/render"
	"notesync/internal/viewer/subscriber"
	"notesync/pkg/logger"
)

// Константы для сообщений.
const (
	LogWatching     = "watching notes broadcast"
	LogPageWritten  = "notes page updated"
	LogWatchStopped = "viewer stopped"

	ErrImagesURL = "cannot derive images URL from server address"
	ErrWritePage = "failed to write notes page"
)

type watchOptions struct {
	server    string
	out       string
	imagesURL string
	reconnect time.Duration
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to the store and keep an HTML page of all notes up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(logger.NewRequestIDContext(ctx, ""), opts)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "ws://localhost:5000/ws", "broadcast endpoint of the store service")
	cmd.Flags().StringVar(&opts.out, "out", "notes.html", "output HTML file")
	cmd.Flags().StringVar(&opts.imagesURL, "images", "", "base URL of stored images (derived from --server when empty)")
	cmd.Flags().DurationVar(&opts.reconnect, "reconnect", subscriber.DefaultReconnectDelay, "delay before reconnecting")

	return cmd
}

func runWatch(ctx context.Context, opts *watchOptions) error {
	log := logger.Log(ctx).With(zap.String("method", "runWatch"))

	imagesURL := opts.imagesURL
	if imagesURL == "" {
		derived, err := imagesURLFromServer(opts.server)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrImagesURL, err)
		}
		imagesURL = derived
	}

	renderer := render.New(imagesURL)
	sub := subscriber.New(opts.server, subscriber.Options{ReconnectDelay: opts.reconnect})

	log.Info(ctx, LogWatching,
		zap.String("server", opts.server),
		zap.String("images", imagesURL),
		zap.String("out", opts.out))

	err := sub.Run(ctx, func(ctx context.Context, snapshot model.Snapshot) error {
		if err := writePage(opts.out, renderer, snapshot); err != nil {
			return err
		}
		logger.Log(ctx).Info(ctx, LogPageWritten, zap.Int("notes", len(snapshot)))
		return nil
	})
	if errors.Is(err, context.Canceled) {
		log.Info(ctx, LogWatchStopped)
		return nil
	}
	return err
}

// imagesURLFromServer переводит ws://host/ws в http://host/images.
func imagesURLFromServer(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws") + "/images"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// writePage заменяет файл страницы целиком, чтобы читатель не увидел частичную запись.
func writePage(path string, renderer *render.Renderer, snapshot model.Snapshot) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".notes-*.html")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrWritePage, err)
	}
	defer os.Remove(tmp.Name())

	if err := renderer.Render(tmp, snapshot); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrWritePage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrWritePage, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%s: %w", ErrWritePage, err)
	}
	return nil
}

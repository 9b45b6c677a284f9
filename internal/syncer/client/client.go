// Package client реализует HTTP-клиент API сервиса хранения заметок.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fiberclient "github.com/gofiber/fiber/v3/client"
	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Пути API сервиса хранения.
const (
	PathHealth      = "/health"
	PathUpsertNotes = "/api/notes/update"
	PathDeleteNote  = "/api/notes/delete"
	PathRenameNote  = "/api/notes/rename"
	PathUploadImage = "/api/upload-image"
	PathDeleteImage = "/api/delete-image"

	headerRequestID = "X-Request-ID"
	fieldFile       = "file"
)

// Ошибки клиента.
var (
	ErrUnreachable = errors.New("store service unreachable")
	ErrNotFound    = errors.New("resource not found")
	ErrDecode      = errors.New("failed to decode store response")
)

// StatusError описывает ответ сервиса хранения с кодом вне диапазона 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store responded %d: %s", e.Code, e.Message)
}

// Is позволяет проверять 404 через errors.Is(err, ErrNotFound).
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// NoteInput - заметка, отправляемая на сохранение.
type NoteInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
	Content string `json:"content"`
}

type upsertResponse struct {
	Count int `json:"count"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type uploadResponse struct {
	FileName string `json:"fileName"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client обращается к API сервиса хранения.
type Client struct {
	http *fiberclient.Client
}

// New создает клиент для сервиса по адресу baseURL.
// Каждый запрос ограничен таймаутом timeout.
func New(baseURL string, timeout time.Duration) *Client {
	c := fiberclient.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetUserAgent("notesync-syncer")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

// Health проверяет доступность сервиса хранения.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, PathHealth, fiberclient.Config{}, nil)
}

// UpsertNotes сохраняет пакет заметок и возвращает количество сохраненных.
func (c *Client) UpsertNotes(ctx context.Context, notes []NoteInput) (int, error) {
	var resp upsertResponse
	if err := c.do(ctx, http.MethodPost, PathUpsertNotes, fiberclient.Config{Body: notes}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// DeleteNote удаляет заметку. false означает, что заметки не было.
func (c *Client) DeleteNote(ctx context.Context, name string) (bool, error) {
	var resp deleteResponse
	if err := c.do(ctx, http.MethodPost, PathDeleteNote, fiberclient.Config{Body: nameRequest{Name: name}}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// RenameNote атомарно заменяет заметку oldName заметкой newName.
func (c *Client) RenameNote(ctx context.Context, oldName, newName, content string) error {
	body := renameRequest{OldName: oldName, NewName: newName, Content: content}
	return c.do(ctx, http.MethodPost, PathRenameNote, fiberclient.Config{Body: body}, nil)
}

// UploadImage загружает изображение и возвращает имя, под которым оно сохранено.
func (c *Client) UploadImage(ctx context.Context, name string, data []byte) (string, error) {
	file := fiberclient.AcquireFile(
		fiberclient.SetFileName(name),
		fiberclient.SetFileFieldName(fieldFile),
		fiberclient.SetFileReader(io.NopCloser(bytes.NewReader(data))),
	)

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, PathUploadImage, fiberclient.Config{File: []*fiberclient.File{file}}, &resp); err != nil {
		return "", err
	}
	return resp.FileName, nil
}

// DeleteImage удаляет изображение.
func (c *Client) DeleteImage(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, PathDeleteImage, fiberclient.Config{Body: nameRequest{Name: name}}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, cfg fiberclient.Config, out any) error {
	log := logger.Log(ctx).With(zap.String("method", "Client.do"), zap.String("path", path))

	cfg.Ctx = ctx
	if requestID, ok := logger.GetRequestID(ctx); ok && requestID != "" {
		cfg.Header = map[string]string{headerRequestID: requestID}
	}

	resp, err := c.http.Custom(path, method, cfg)
	if err != nil {
		log.Debug(ctx, ErrUnreachable.Error(), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Close()

	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		var body errorResponse
		message := strings.TrimSpace(resp.String())
		if err := resp.JSON(&body); err == nil && body.Message != "" {
			message = body.Message
			if body.Error != "" {
				message += ": " + body.Error
			}
		}
		return &StatusError{Code: code, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

package logger

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// MaxRequestIDLength - максимальная длина принимаемого извне идентификатора запроса.
const MaxRequestIDLength = 64

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// NewRequestIDContext кладет в контекст идентификатор запроса. Пустой или слишком длинный
// идентификатор, а также содержащий управляющие символы, заменяется новым.
func NewRequestIDContext(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if !validRequestID(requestID) {
		requestID = GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// NewEventContext кладет в контекст новый идентификатор вида "<kind>-<uuid>".
// Синхронизатор заводит такой идентификатор на каждое событие хранилища.
func NewEventContext(ctx context.Context, kind string) context.Context {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return NewRequestIDContext(ctx, "")
	}
	return context.WithValue(ctx, requestIDKey, kind+"-"+GenerateRequestID())
}

// GetRequestID извлекает идентификатор запроса из контекста.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// GenerateRequestID генерирует новый идентификатор запроса.
func GenerateRequestID() string {
	return uuid.New().String()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

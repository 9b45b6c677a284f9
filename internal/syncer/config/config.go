// Package config содержит конфигурацию клиента синхронизации.
package config

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgconfig "notesync/pkg/config"
	"notesync/pkg/logger"
)

const serviceName = "syncer"

// Config представляет полную конфигурацию клиента синхронизации.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Vault    VaultConfig    `yaml:"vault"`
	Retry    RetryConfig    `yaml:"retry"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// BackendConfig описывает подключение к сервису хранения.
type BackendConfig struct {
	URL            string        `yaml:"url" env:"SYNC_BACKEND_URL" env-default:"http://localhost:5000"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SYNC_REQUEST_TIMEOUT" env-default:"10s"`
}

// VaultConfig описывает отслеживаемое хранилище заметок.
type VaultConfig struct {
	Root          string        `yaml:"root" env:"SYNC_VAULT_ROOT" env-default:"."`
	Ignore        []string      `yaml:"ignore" env:"SYNC_VAULT_IGNORE" env-separator:"," env-default:".obsidian/**,.git/**,.trash/**"`
	PairingWindow time.Duration `yaml:"pairing_window" env:"SYNC_RENAME_PAIRING_WINDOW" env-default:"100ms"`
}

// RetryConfig содержит настройки повторных попыток сетевых вызовов.
type RetryConfig struct {
	Attempts       int           `yaml:"attempts" env:"SYNC_RETRY_ATTEMPTS" env-default:"1"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"SYNC_RETRY_INITIAL_BACKOFF" env-default:"200ms"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env:"SYNC_RETRY_MAX_BACKOFF" env-default:"2s"`
}

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"SYNC_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"SYNC_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment переводит строку режима в окружение logger.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	if l.Mode == string(logger.Production) {
		return logger.Production
	}
	return logger.Development
}

// ShutdownConfig представляет конфигурацию корректного завершения работы.
type ShutdownConfig struct {
	Timeout int `yaml:"timeout" env:"SYNC_GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"5"`
}

// GetTimeout возвращает таймаут завершения работы.
func (c *ShutdownConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load загружает конфигурацию из файла path (если задан) и переменных окружения SYNC_*.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, serviceName, path)
	if err != nil {
		return nil, err
	}

	logger.Log(ctx).Info(ctx, "syncer configuration",
		zap.String("backend_url", cfg.Backend.URL),
		zap.Duration("request_timeout", cfg.Backend.RequestTimeout),
		zap.String("vault_root", cfg.Vault.Root),
		zap.Strings("ignore", cfg.Vault.Ignore),
		zap.Int("retry_attempts", cfg.Retry.Attempts),
		zap.String("log_level", cfg.Logging.Level))

	return cfg, nil
}

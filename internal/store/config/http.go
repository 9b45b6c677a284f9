package config

import (
	"fmt"
	"time"
)

// HTTPConfig представляет конфигурацию HTTP сервера.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"STORE_HTTP_HOST" env-default:"0.0.0.0"`
	Port         int           `yaml:"port" env:"STORE_HTTP_PORT" env-default:"5000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"STORE_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"STORE_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	BodyLimitMB  int           `yaml:"body_limit_mb" env:"STORE_HTTP_BODY_LIMIT_MB" env-default:"32"`
	CORSOrigins  []string      `yaml:"cors_origins" env:"STORE_HTTP_CORS_ORIGINS" env-default:"*" env-separator:","`
}

// GetAddress возвращает адрес HTTP сервера.
func (c *HTTPConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetBodyLimit возвращает предельный размер тела запроса в байтах.
func (c *HTTPConfig) GetBodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

package config

import (
	"strconv"
	"time"
)

// RedisConfig представляет конфигурацию ретрансляции оповещений между экземплярами сервиса.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" env:"STORE_REDIS_ENABLED" env-default:"false"`
	Host         string        `yaml:"host" env:"STORE_REDIS_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"STORE_REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"STORE_REDIS_PASSWORD" env-default:""`
	DB           int           `yaml:"db" env:"STORE_REDIS_DB" env-default:"0"`
	Channel      string        `yaml:"channel" env:"STORE_REDIS_CHANNEL" env-default:"notesync:notes-updated"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"STORE_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"STORE_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"STORE_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PoolSize     int           `yaml:"pool_size" env:"STORE_REDIS_POOL_SIZE" env-default:"10"`
}

// GetAddressString возвращает адрес Redis.
func (c *RedisConfig) GetAddressString() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

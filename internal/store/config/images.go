package config

import "time"

// ImagesConfig задает каталог хранения изображений.
type ImagesConfig struct {
	Dir    string `yaml:"dir" env:"STORE_IMAGES_DIR" env-default:"images"`
	MaxAge int    `yaml:"max_age" env:"STORE_IMAGES_MAX_AGE" env-default:"0"`
}

// BroadcastConfig задает параметры рассылки снимков коллекции зрителям.
type BroadcastConfig struct {
	WriteTimeout     time.Duration `yaml:"write_timeout" env:"STORE_BROADCAST_WRITE_TIMEOUT" env-default:"5s"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"STORE_BROADCAST_HANDSHAKE_TIMEOUT" env-default:"10s"`
	SnapshotTimeout  time.Duration `yaml:"snapshot_timeout" env:"STORE_BROADCAST_SNAPSHOT_TIMEOUT" env-default:"10s"`
}

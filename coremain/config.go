package coremain

import (
	"github.com/nohuhu/typecache/mlog"
)

type Config struct {
	Log     mlog.LogConfig `yaml:"log"`
	Prefix  string         `yaml:"prefix"`
	Storage StorageConfig  `yaml:"storage"`
}

type StorageConfig struct {
	// Kind is "session", "permanent" or "redis". Default is "session".
	Kind string `yaml:"kind"`

	// File is the backing file of the "permanent" kind.
	File string `yaml:"file"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Timeout for read and write operations, in milliseconds.
	Timeout int `yaml:"timeout"`
}

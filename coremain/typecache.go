package coremain

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nohuhu/typecache/mlog"
	"github.com/nohuhu/typecache/pkg/cache"
	"github.com/nohuhu/typecache/pkg/storage"
	"github.com/nohuhu/typecache/pkg/storage/redis_storage"
)

// NewCache builds a cache from a loaded config: logger, metrics registry,
// storage backend and facade.
func NewCache(cfg *Config) (*cache.Cache, error) {
	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	opts := cache.Opts{
		StorageKind: cfg.Storage.Kind,
		KeyPrefix:   cfg.Prefix,
		FilePath:    cfg.Storage.File,
		Logger:      lg,
		MetricsReg:  prometheus.WrapRegistererWithPrefix("typecache_", newMetricsReg()),
	}

	if cfg.Storage.Kind == "redis" {
		backend, err := newRedisBackend(&cfg.Storage.Redis, lg)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis storage: %w", err)
		}
		opts.Backend = backend
		opts.StorageKind = ""
	}

	c, err := cache.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}
	return c, nil
}

func newRedisBackend(rc *RedisConfig, lg *zap.Logger) (storage.Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	return redis_storage.NewRedisStorage(redis_storage.RedisStorageOpts{
		Client:        client,
		ClientCloser:  client,
		ClientTimeout: time.Duration(rc.Timeout) * time.Millisecond,
		Logger:        lg,
	})
}

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

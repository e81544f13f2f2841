// Package redis_storage is a string-only backend over a redis server, for
// deployments where the "permanent" storage partition must outlive the
// process or be shared between processes.
package redis_storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/nohuhu/typecache/pkg/utils"
)

var nopLogger = zap.NewNop()

type RedisStorageOpts struct {
	// Client cannot be nil.
	Client redis.Cmdable

	// ClientCloser closes Client when RedisStorage.Close is called.
	// Optional.
	ClientCloser io.Closer

	// ClientTimeout specifies the timeout for read and write operations.
	// Default is 1s.
	ClientTimeout time.Duration

	// Logger is the *zap.Logger for this RedisStorage.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *RedisStorageOpts) Init() error {
	if opts.Client == nil {
		return errors.New("nil client")
	}
	utils.SetDefaultNum(&opts.ClientTimeout, time.Second)
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

type RedisStorage struct {
	opts RedisStorageOpts
}

func NewRedisStorage(opts RedisStorageOpts) (*RedisStorage, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	return &RedisStorage{
		opts: opts,
	}, nil
}

func (s *RedisStorage) GetItem(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	v, err := s.opts.Client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.opts.Logger.Warn("redis get", zap.Error(err))
		}
		return nil, false
	}
	return v, true
}

func (s *RedisStorage) SetItem(key string, v any) {
	str, ok := v.(string)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	if err := s.opts.Client.Set(ctx, key, str, 0).Err(); err != nil {
		s.opts.Logger.Warn("redis set", zap.Error(err))
	}
}

func (s *RedisStorage) RemoveItem(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	if err := s.opts.Client.Del(ctx, key).Err(); err != nil {
		s.opts.Logger.Warn("redis del", zap.Error(err))
	}
}

func (s *RedisStorage) Key(i int) (string, bool) {
	if i < 0 {
		return "", false
	}
	keys := s.allKeys()
	if i >= len(keys) {
		return "", false
	}
	return keys[i], true
}

func (s *RedisStorage) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	n, err := s.opts.Client.DBSize(ctx).Result()
	if err != nil {
		s.opts.Logger.Warn("redis dbsize", zap.Error(err))
		return 0
	}
	return int(n)
}

func (s *RedisStorage) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	if err := s.opts.Client.FlushDB(ctx).Err(); err != nil {
		s.opts.Logger.Warn("redis flushdb", zap.Error(err))
	}
}

func (s *RedisStorage) NeedsSerialization() bool {
	return true
}

// Close closes the redis client.
func (s *RedisStorage) Close() error {
	if f := s.opts.ClientCloser; f != nil {
		return f.Close()
	}
	return nil
}

func (s *RedisStorage) allKeys() []string {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ClientTimeout)
	defer cancel()
	keys, err := s.opts.Client.Keys(ctx, "*").Result()
	if err != nil {
		s.opts.Logger.Warn("redis keys", zap.Error(err))
		return nil
	}
	return keys
}

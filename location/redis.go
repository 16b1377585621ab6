package location

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// Redis keeps the snapshot as a single string value. The caller owns the
// client lifecycle. The key never expires.
type Redis struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
}

var _ Location = (*Redis)(nil)

// RedisOption configures a Redis location.
type RedisOption func(*Redis)

// WithRedisTimeout bounds each Redis round trip. Defaults to DefaultTimeout.
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(r *Redis) { r.timeout = d }
}

// NewRedis returns a Location storing the snapshot under key.
func NewRedis(client redis.Cmdable, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) String() string {
	return "redis://" + r.key
}

// kind returns the Redis type of the key, rejecting anything but a string.
func (r *Redis) kind(ctx context.Context) (string, error) {
	kind, err := r.client.Type(ctx, r.key).Result()
	if err != nil {
		return "", errors.Wrapf(err, "type %s", r.key)
	}
	if kind != "none" && kind != "string" {
		return kind, errors.Wrapf(ErrInvalid, "redis key %s holds a %s", r.key, kind)
	}
	return kind, nil
}

func (r *Redis) Load(ctx context.Context) ([]byte, error) {
	qctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	kind, err := r.kind(qctx)
	if err != nil {
		return nil, err
	}
	if kind == "none" {
		return nil, ErrNotFound
	}
	data, err := r.client.Get(qctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", r.key)
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, data []byte) error {
	qctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.kind(qctx); err != nil {
		return err
	}
	if err := r.client.Set(qctx, r.key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", r.key)
	}
	return nil
}

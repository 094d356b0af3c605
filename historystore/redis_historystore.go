// historystore/redis_historystore.go

package historystore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultConnectAttempts = 30

// RedisHistoryStore keeps each session's history in a Redis hash keyed by
// session id, under the FieldName field.
type RedisHistoryStore struct {
	client   *redis.Client
	attempts uint64
	expiry   time.Duration
	log      logrus.FieldLogger
}

// NewRedisHistoryStore accepts either a redis:// URL or a plain
// "hostname:port" address.
func NewRedisHistoryStore(redisAddr string, log logrus.FieldLogger) (*RedisHistoryStore, error) {
	if redisAddr == "" {
		return nil, errors.New("redis address is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// not a redis:// URL; use it as Addr
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisHistoryStore{
		client:   client,
		attempts: defaultConnectAttempts,
		log:      log.WithFields(logrus.Fields{"component": "historystore", "redis": opts.Addr}),
	}, nil
}

// SetExpiry makes every Save refresh a TTL of d on the session's key, so
// abandoned sessions age out of Redis. Zero keeps keys forever.
func (r *RedisHistoryStore) SetExpiry(d time.Duration) {
	r.expiry = d
}

// Initialize pings Redis with exponential backoff until it answers.
func (r *RedisHistoryStore) Initialize(ctx context.Context) error {
	r.log.Info("RedisHistoryStore: initializing connection")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		if r.Ping(ctx) {
			return nil
		}
		return errors.Errorf("ping failed (attempt %d/%d)", attempt, r.attempts)
	}
	notify := func(err error, wait time.Duration) {
		r.log.WithError(err).WithField("wait", wait).Warn("RedisHistoryStore: retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, r.attempts-1), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return errors.Wrapf(ErrPersistence, "connect to redis after %d attempts: %v", attempt, err)
	}
	r.log.WithField("attempts", attempt).Info("RedisHistoryStore initialized successfully")
	return nil
}

// Load reads the session's history. A missing entry reads as empty.
func (r *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]string, error) {
	val, err := r.client.HGet(ctx, sessionID, FieldName).Bytes()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(ErrPersistence, "redis HGet: %v", err)
	}
	history, err := decodeHistory(val)
	if err != nil {
		return nil, errors.Wrapf(ErrPersistence, "parse history: %v", err)
	}
	return history, nil
}

// Save replaces the session's history.
func (r *RedisHistoryStore) Save(ctx context.Context, sessionID string, history []string) error {
	r.log.WithFields(logrus.Fields{"session": sessionID, "entries": len(history)}).Debug("Save called")

	bin, err := encodeHistory(history)
	if err != nil {
		return errors.Wrapf(ErrPersistence, "encode history: %v", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionID, FieldName, bin)
		if r.expiry > 0 {
			pipe.Expire(ctx, sessionID, r.expiry)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(ErrPersistence, "redis HSet: %v", err)
	}
	return nil
}

// Clear removes the session's history field.
func (r *RedisHistoryStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.HDel(ctx, sessionID, FieldName).Err(); err != nil {
		return errors.Wrapf(ErrPersistence, "redis HDel: %v", err)
	}
	return nil
}

// Ping reports whether Redis answers within five seconds.
func (r *RedisHistoryStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("RedisHistoryStore: ping failed")
		return false
	}
	return true
}

// Close releases the client's connections.
func (r *RedisHistoryStore) Close() error {
	return r.client.Close()
}

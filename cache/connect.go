package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFailedToParseRedisURL = errors.New("failed to parse redis connection url")
	ErrRedisNotReady         = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL    = errors.New("empty redis connection url")
)

// RedisConfig describes how to reach the session cache.
// When ClusterAddrs is set, ConnectionURL is only used for credentials.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	ClusterAddrs   []string      `env:"REDIS_CLUSTER_ADDRS" envSeparator:","`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Connect dials Redis and pings it until it answers, retrying up to
// RetryAttempts times. The returned client is ready for [NewRedisBackend].
func Connect(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if cfg.ConnectionURL == "" && len(cfg.ClusterAddrs) == 0 {
		return nil, ErrEmptyConnectionURL
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	attempts := max(cfg.RetryAttempts, 1)

	newClient, err := clientFactory(cfg)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for range attempts {
		client := newClient()
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

func clientFactory(cfg RedisConfig) (func() redis.UniversalClient, error) {
	var base *redis.Options
	if cfg.ConnectionURL != "" {
		opts, err := redis.ParseURL(cfg.ConnectionURL)
		if err != nil {
			return nil, errors.Join(ErrFailedToParseRedisURL, err)
		}
		base = opts
	}

	if len(cfg.ClusterAddrs) == 0 {
		return func() redis.UniversalClient { return redis.NewClient(base) }, nil
	}

	clusterOpts := &redis.ClusterOptions{Addrs: cfg.ClusterAddrs}
	if base != nil {
		clusterOpts.Username = base.Username
		clusterOpts.Password = base.Password
		clusterOpts.TLSConfig = base.TLSConfig
	}
	return func() redis.UniversalClient { return redis.NewClusterClient(clusterOpts) }, nil
}

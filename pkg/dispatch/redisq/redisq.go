package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config holds configuration for a Redis Stream publisher.
type Config struct {
	// Redis client used for publishing. Required.
	Redis redis.UniversalClient

	// Stream is the Redis Stream key to publish firings to. Required.
	Stream string

	// MaxLen caps the stream with approximate trimming (default: 65536).
	MaxLen int64

	// InstanceID identifies this publisher in stream records. Auto-generated
	// when empty.
	InstanceID string

	// Timeout bounds each Redis operation (default: 500ms).
	Timeout time.Duration
}

// DefaultConfig returns a default publisher configuration.
func DefaultConfig() Config {
	return Config{
		MaxLen:     65536,
		InstanceID: uuid.NewString(),
		Timeout:    500 * time.Millisecond,
	}
}

// Publisher implements dispatch.Dispatcher by appending every firing to a
// Redis Stream.
type Publisher struct {
	config Config
}

// New creates a Publisher with the given configuration.
func New(config Config) (*Publisher, error) {
	if config.Redis == nil {
		return nil, &ConfigError{"redis client is required"}
	}
	if config.Stream == "" {
		return nil, &ConfigError{"stream key is required"}
	}
	if config.MaxLen <= 0 {
		config.MaxLen = 65536
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Timeout <= 0 {
		config.Timeout = 500 * time.Millisecond
	}
	return &Publisher{config: config}, nil
}

// Dispatch publishes one firing to the stream.
func (p *Publisher) Dispatch(ctx context.Context, origin, action interface{}) error {
	originJSON, err := json.Marshal(origin)
	if err != nil {
		return fmt.Errorf("encode origin: %w", err)
	}
	actionJSON, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	err = p.config.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.config.Stream,
		MaxLen: p.config.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id": uuid.NewString(),
			"instance": p.config.InstanceID,
			"origin":   string(originJSON),
			"action":   string(actionJSON),
		},
	}).Err()
	if err != nil {
		return &RedisError{Operation: "xadd", Err: err}
	}
	return nil
}

// ConfigError represents a publisher configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "redisq config error: " + e.Message
}

// RedisError represents a Redis operation error.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

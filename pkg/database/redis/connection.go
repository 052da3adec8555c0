package redis

import (
	"fmt"

	"github.com/huynhanx03/go-batching/pkg/settings"
)

// NewConnection creates and returns a new Redis engine
func NewConnection(cfg *settings.Redis) (*RedisEngine, error) {
	if err := settings.Validate(cfg); err != nil {
		return nil, err
	}

	engine := &RedisEngine{
		config: cfg,
	}

	if err := engine.connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return engine, nil
}

package kafka

import "errors"

var (
	ErrConnectionFailed = errors.New("failed to connect to kafka")
	ErrProduceFailed    = errors.New("failed to produce batch")
)

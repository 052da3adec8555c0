package mongodb

import "errors"

var (
	ErrConnectionFailed = errors.New("failed to connect to mongodb")
	ErrPingFailed       = errors.New("failed to ping mongodb")
	ErrInsertFailed     = errors.New("failed to insert batch")
)

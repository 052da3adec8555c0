package elasticsearch

import "errors"

var (
	ErrConnectionFailed  = errors.New("failed to connect to elasticsearch")
	ErrPingFailed        = errors.New("failed to ping elasticsearch")
	ErrBulkRequestFailed = errors.New("failed to execute bulk request")
	ErrDecodeFailed      = errors.New("failed to decode response")
)

package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoData       = errors.New("no data available")
	ErrStaleData    = errors.New("data too stale")
	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrClosed       = errors.New("already closed")
)

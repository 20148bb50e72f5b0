package cluster

import "errors"

var (
	// ErrServerNotFound indicates the hostname is not registered.
	ErrServerNotFound = errors.New("server not found")

	// ErrServerDisabled indicates the server is registered but disabled.
	ErrServerDisabled = errors.New("server is disabled")

	// ErrPoolClosed indicates the pool has been shut down.
	ErrPoolClosed = errors.New("connection pool is closed")
)

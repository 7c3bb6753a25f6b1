// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Transport, resolver and dialer contracts consumed by the clients.

package api

//go:generate go tool mockgen -source=transport.go -destination=../internal/mocks/mock_transport.go -package=mocks

import (
	"context"
	"io"
	"time"
)

// Transport is a connected, exclusively owned byte stream.
type Transport interface {
	io.Reader
	io.Writer

	// CloseWrite shuts down the sending direction only.
	CloseWrite() error

	// Close releases the connection. Safe to call more than once.
	Close() error

	// SetDeadline bounds all pending and future Read/Write calls.
	SetDeadline(t time.Time) error
}

// Resolver maps host and port onto an ordered list of connectable endpoints.
type Resolver interface {
	Resolve(ctx context.Context, host, port string) ([]Endpoint, error)
}

// Dialer opens a Transport to a single endpoint.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Transport, error)
}

// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing.
// Provides predictable, controllable transports and dialers.

package fake

import (
	"context"
	"net"
	"sync"

	"github.com/momentics/syncwire/api"
)

// Transport is a pipe-backed api.Transport with an injectable CloseWrite error.
type Transport struct {
	net.Conn

	mu            sync.Mutex
	closeWriteErr error
	closeWrites   int
	closed        bool
}

// NewPipe returns a client transport and the server end of an in-memory pipe.
func NewPipe() (*Transport, net.Conn) {
	client, server := net.Pipe()
	return &Transport{Conn: client}, server
}

// SetCloseWriteError makes CloseWrite return err.
func (t *Transport) SetCloseWriteError(err error) {
	t.mu.Lock()
	t.closeWriteErr = err
	t.mu.Unlock()
}

// CloseWrite records the call. Pipes have no half-close, so nothing is shut down.
func (t *Transport) CloseWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeWrites++
	return t.closeWriteErr
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return t.Conn.Close()
}

// CloseWriteCalls returns how many times CloseWrite was called.
func (t *Transport) CloseWriteCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeWrites
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Dialer delegates to DialFunc and records every endpoint it was asked for.
type Dialer struct {
	DialFunc func(ctx context.Context, ep api.Endpoint) (api.Transport, error)

	mu     sync.Mutex
	dialed []api.Endpoint
}

// Dial implements api.Dialer.
func (d *Dialer) Dial(ctx context.Context, ep api.Endpoint) (api.Transport, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, ep)
	d.mu.Unlock()
	return d.DialFunc(ctx, ep)
}

// Dialed returns the endpoints dialed so far, in order.
func (d *Dialer) Dialed() []api.Endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]api.Endpoint(nil), d.dialed...)
}

// PipeDialer returns a Dialer that connects every call to serve over a fresh pipe.
// serve runs on its own goroutine and owns the server end. Each client transport
// returns closeWriteErr from CloseWrite and is also sent on the returned channel.
func PipeDialer(serve func(server net.Conn), closeWriteErr error) (*Dialer, <-chan *Transport) {
	made := make(chan *Transport, 16)
	d := &Dialer{DialFunc: func(context.Context, api.Endpoint) (api.Transport, error) {
		client, server := NewPipe()
		client.SetCloseWriteError(closeWriteErr)
		go serve(server)
		made <- client
		return client, nil
	}}
	return d, made
}

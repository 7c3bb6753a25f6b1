// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"net"
	"sync"
	"time"
)

// TCPConn implements api.Transport over a connected *net.TCPConn.
type TCPConn struct {
	conn      *net.TCPConn
	closeOnce sync.Once
	closeErr  error
}

// NewTCPConn wraps an established TCP connection.
func NewTCPConn(conn *net.TCPConn) *TCPConn {
	return &TCPConn{conn: conn}
}

func (c *TCPConn) Read(buf []byte) (int, error) {
	return c.conn.Read(buf)
}

func (c *TCPConn) Write(buf []byte) (int, error) {
	return c.conn.Write(buf)
}

// CloseWrite shuts down the send direction of the socket.
func (c *TCPConn) CloseWrite() error {
	return shutdownWrite(c.conn)
}

// Close the connection. Subsequent calls return the first result.
func (c *TCPConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *TCPConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// RemoteAddr returns the peer address.
func (c *TCPConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

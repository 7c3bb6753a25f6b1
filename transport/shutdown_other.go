//go:build !unix

// Author: momentics <momentics@gmail.com>

// Package transport - half-close fallback for non-unix platforms.

package transport

import (
	"errors"
	"net"
	"syscall"
)

func shutdownWrite(conn *net.TCPConn) error {
	return conn.CloseWrite()
}

// IsNotConnected reports whether err means the socket was no longer connected.
func IsNotConnected(err error) bool {
	return errors.Is(err, syscall.ENOTCONN)
}

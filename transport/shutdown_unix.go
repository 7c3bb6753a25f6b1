//go:build unix

// Author: momentics <momentics@gmail.com>

// Package transport - shutdown(2) based half-close for unix platforms.

package transport

import (
	"errors"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

func shutdownWrite(conn *net.TCPConn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = unix.Shutdown(int(fd), unix.SHUT_WR)
	}); err != nil {
		return err
	}
	if serr != nil {
		return os.NewSyscallError("shutdown", serr)
	}
	return nil
}

// IsNotConnected reports whether err means the socket was no longer connected.
func IsNotConnected(err error) bool {
	return errors.Is(err, unix.ENOTCONN)
}

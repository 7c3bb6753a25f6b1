// File: core/protocol/handshake.go
// Package protocol implements the client side of the WebSocket opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builds the HTTP/1.1 Upgrade request, validates the 101 Switching Protocols
// response and the Sec-WebSocket-Key/Accept exchange.

package protocol

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Constants used for handshake processing.
const (
	WebSocketGUID            = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	HeaderConnection         = "Connection"
	HeaderUpgrade            = "Upgrade"
	HeaderSecWebSocketKey    = "Sec-WebSocket-Key"
	HeaderSecWebSocketVer    = "Sec-WebSocket-Version"
	HeaderSecWebSocketAccept = "Sec-WebSocket-Accept"
	RequiredWebSocketVersion = "13"
)

// Errors for handshake validation.
var (
	ErrBadHandshakeStatus    = errors.New("server did not switch protocols")
	ErrInvalidUpgradeHeaders = errors.New("invalid WebSocket upgrade headers")
	ErrAcceptMismatch        = errors.New("accept value does not match challenge key")
	ErrHandshakeTooLarge     = errors.New("handshake response header too large")
)

// NewChallengeKey returns a base64 encoded 16-byte nonce for Sec-WebSocket-Key.
func NewChallengeKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("challenge key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(id[:]), nil
}

// ComputeAcceptKey derives the Sec-WebSocket-Accept value for key.
func ComputeAcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// WriteClientHandshake writes the GET Upgrade request for path to w in one Write.
func WriteClientHandshake(w io.Writer, host, path, key, userAgent string) error {
	if path == "" {
		path = "/"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "%s: %s\r\n", HeaderSecWebSocketKey, key)
	fmt.Fprintf(&b, "%s: %s\r\n", HeaderSecWebSocketVer, RequiredWebSocketVersion)
	if userAgent != "" {
		fmt.Fprintf(&b, "User-Agent: %s\r\n", userAgent)
	}
	b.WriteString("\r\n")

	req := b.String()
	n, err := io.WriteString(w, req)
	if err != nil {
		return err
	}
	if n != len(req) {
		return io.ErrShortWrite
	}
	return nil
}

// ReadServerHandshake reads the upgrade response from br and validates it against key.
// Bytes following the response headers stay buffered in br.
func ReadServerHandshake(br *bufio.Reader, key string) (*http.Response, error) {
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		return nil, fmt.Errorf("handshake read response: %w", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return resp, fmt.Errorf("%w: status %d", ErrBadHandshakeStatus, resp.StatusCode)
	}
	if !headerContainsToken(resp.Header, HeaderUpgrade, "websocket") ||
		!headerContainsToken(resp.Header, HeaderConnection, "upgrade") {
		return resp, ErrInvalidUpgradeHeaders
	}
	if resp.Header.Get(HeaderSecWebSocketAccept) != ComputeAcceptKey(key) {
		return resp, ErrAcceptMismatch
	}
	return resp, nil
}

// HeadLimiter caps the bytes read from R until Lift is called. It sits under
// the bufio.Reader that parses the upgrade response so an oversized head
// fails with ErrHandshakeTooLarge instead of growing without bound.
type HeadLimiter struct {
	R      io.Reader
	N      int
	lifted bool
}

func (l *HeadLimiter) Read(p []byte) (int, error) {
	if l.lifted {
		return l.R.Read(p)
	}
	if l.N <= 0 {
		return 0, ErrHandshakeTooLarge
	}
	if len(p) > l.N {
		p = p[:l.N]
	}
	n, err := l.R.Read(p)
	l.N -= n
	return n, err
}

// Lift removes the cap once the handshake is complete.
func (l *HeadLimiter) Lift() { l.lifted = true }

// headerContainsToken checks if headerName contains the given token (case-insensitive).
func headerContainsToken(h http.Header, headerName, token string) bool {
	for _, v := range h.Values(headerName) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

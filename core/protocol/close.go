// File: core/protocol/close.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Close frame payload encoding: 2-byte big-endian status code followed by
// an optional UTF-8 reason.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrClosePayloadLength = errors.New("close payload of length 1")
	ErrInvalidCloseCode   = errors.New("close code not allowed on the wire")
	ErrInvalidCloseReason = errors.New("close reason is not valid UTF-8")
)

// CloseError describes the close frame received from the peer.
type CloseError struct {
	Code   CloseCode
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("websocket closed with code %d", e.Code)
	}
	return fmt.Sprintf("websocket closed with code %d: %s", e.Code, e.Reason)
}

// EncodeClosePayload builds a close frame payload. CloseNoStatusReceived yields an
// empty payload. Reasons longer than 123 bytes are truncated on a rune boundary.
func EncodeClosePayload(code CloseCode, reason string) []byte {
	if code == CloseNoStatusReceived {
		return nil
	}
	if len(reason) > maxCloseReasonLen {
		cut := maxCloseReasonLen
		for cut > 0 && !utf8.RuneStart(reason[cut]) {
			cut--
		}
		reason = reason[:cut]
	}
	p := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(p, uint16(code))
	return append(p, reason...)
}

// DecodeClosePayload parses and validates a received close frame payload.
func DecodeClosePayload(p []byte) (CloseCode, string, error) {
	switch len(p) {
	case 0:
		return CloseNoStatusReceived, "", nil
	case 1:
		return 0, "", ErrClosePayloadLength
	}
	code := CloseCode(binary.BigEndian.Uint16(p))
	if !code.ValidOnWire() {
		return code, "", fmt.Errorf("%w: %d", ErrInvalidCloseCode, code)
	}
	reason := p[2:]
	if !utf8.Valid(reason) {
		return code, "", ErrInvalidCloseReason
	}
	return code, string(reason), nil
}

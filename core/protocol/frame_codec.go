// File: core/protocol/frame_codec.go
// Package protocol implements the stream frame codec with frame size enforcement.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Implements WebSocket frame encoding/decoding with payload size limits
// to prevent resource exhaustion.

package protocol

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFramePayload is the default cap for a single frame payload.
const MaxFramePayload = 1 << 20 // 1 MiB

// Frame format violations reported by ReadFrame.
var (
	ErrReservedBits      = errors.New("reserved bits set without negotiated extension")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrFragmentedControl = errors.New("fragmented control frame")
	ErrControlTooLarge   = errors.New("control frame payload exceeds 125 bytes")
	ErrFrameTooLarge     = errors.New("frame payload exceeds maximum allowed size")
	ErrBadLength         = errors.New("invalid 64-bit payload length")
)

// Frame is a single WebSocket frame.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// NewMaskKey returns a fresh masking key from crypto/rand.
func NewMaskKey() ([4]byte, error) {
	var key [4]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("mask key: %w", err)
	}
	return key, nil
}

// MaskBytes XORs b with key starting at key offset pos and returns the next offset.
func MaskBytes(key [4]byte, pos int, b []byte) int {
	for i := range b {
		b[i] ^= key[pos&3]
		pos++
	}
	return pos & 3
}

// AppendFrame appends the wire encoding of f to dst.
// The payload is masked in the output only; f.Payload is left untouched.
func AppendFrame(dst []byte, f Frame) []byte {
	b0 := byte(f.Opcode) & OpcodeMsk
	if f.Fin {
		b0 |= FinBit
	}
	var maskBit byte
	if f.Masked {
		maskBit = MaskBit
	}
	plen := len(f.Payload)

	switch {
	case plen <= 125:
		dst = append(dst, b0, byte(plen)|maskBit)
	case plen <= 0xFFFF:
		dst = append(dst, b0, 126|maskBit)
		dst = binary.BigEndian.AppendUint16(dst, uint16(plen))
	default:
		dst = append(dst, b0, 127|maskBit)
		dst = binary.BigEndian.AppendUint64(dst, uint64(plen))
	}

	if !f.Masked {
		return append(dst, f.Payload...)
	}
	dst = append(dst, f.MaskKey[:]...)
	start := len(dst)
	dst = append(dst, f.Payload...)
	MaskBytes(f.MaskKey, 0, dst[start:])
	return dst
}

// WriteFrame encodes f and writes it with a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	buf := AppendFrame(make([]byte, 0, MaxFrameHeaderLen+len(f.Payload)), f)
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// ReadFrame decodes one frame from r, enforcing maxPayload (<= 0 means MaxFramePayload).
// Masked payloads are unmasked in place. Truncated input yields io.ErrUnexpectedEOF;
// EOF before the first byte yields io.EOF.
func ReadFrame(r io.Reader, maxPayload int64) (Frame, error) {
	if maxPayload <= 0 {
		maxPayload = MaxFramePayload
	}
	var f Frame
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return f, err
	}
	if hdr[0]&RsvBits != 0 {
		return f, ErrReservedBits
	}
	f.Fin = hdr[0]&FinBit != 0
	f.Opcode = Opcode(hdr[0] & OpcodeMsk)
	if !f.Opcode.valid() {
		return f, fmt.Errorf("%w 0x%x", ErrUnknownOpcode, byte(f.Opcode))
	}
	f.Masked = hdr[1]&MaskBit != 0
	length := uint64(hdr[1] & LenMsk)

	if f.Opcode.IsControl() {
		if !f.Fin {
			return f, ErrFragmentedControl
		}
		if length > MaxControlPayloadLen {
			return f, ErrControlTooLarge
		}
	}

	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return f, unexpected(err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return f, unexpected(err)
		}
		length = binary.BigEndian.Uint64(ext[:])
		if length>>63 != 0 {
			return f, ErrBadLength
		}
	}

	if length > uint64(maxPayload) {
		return f, ErrFrameTooLarge
	}

	if f.Masked {
		if _, err := io.ReadFull(r, f.MaskKey[:]); err != nil {
			return f, unexpected(err)
		}
	}

	// The buffer grows with the bytes that arrive, never with the declared length.
	var payload bytes.Buffer
	if _, err := io.CopyN(&payload, r, int64(length)); err != nil {
		return f, unexpected(err)
	}
	f.Payload = payload.Bytes()
	if f.Payload == nil {
		f.Payload = []byte{}
	}
	if f.Masked {
		MaskBytes(f.MaskKey, 0, f.Payload)
	}
	return f, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

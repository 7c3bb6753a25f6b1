// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the client-side WebSocket wire protocol (RFC 6455) for syncwire.
//
// Includes:
//   - Frame encoding/decoding over io.Reader/io.Writer
//   - Masking support for client-to-server frames
//   - Close frame payload encoding and validation
//   - Opening handshake request and Sec-WebSocket-Accept verification
package protocol

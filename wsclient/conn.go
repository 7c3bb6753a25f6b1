// File: wsclient/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Open WebSocket session: masked writes, message reassembly with control
// frame interleaving, and the closing handshake.

package wsclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/momentics/syncwire/api"
	"github.com/momentics/syncwire/control"
	"github.com/momentics/syncwire/core/protocol"
)

// Session errors.
var (
	// ErrClosedWithoutMessage reports a close frame received while a message was expected.
	ErrClosedWithoutMessage = errors.New("websocket closed before a message arrived")
	ErrNotOpen              = errors.New("websocket session is not open")
	ErrMaskedServerFrame    = errors.New("server frame is masked")
	ErrUnexpectedContinue   = errors.New("continuation frame without a message in progress")
	ErrInterleavedData      = errors.New("data frame inside a fragmented message")
	ErrMessageTooLarge      = errors.New("message exceeds size limit")
	ErrInvalidUTF8          = errors.New("text message is not valid UTF-8")
	ErrUnexpectedBinary     = errors.New("expected a text message, got binary")
	errDataOpcode           = errors.New("only text and binary messages can be written")
)

// Conn is an open client session. It is not safe for concurrent use.
type Conn struct {
	tr  api.Transport
	br  *bufio.Reader
	ep  api.Endpoint
	cfg control.Config
	log *zap.Logger
	lc  *lifecycle

	closeSent bool
	peerClose *protocol.CloseError
}

// State returns the current session state.
func (c *Conn) State() State { return c.lc.state }

// Endpoint returns the peer the session is connected to.
func (c *Conn) Endpoint() api.Endpoint { return c.ep }

// PeerClose returns the close frame received from the peer, if any.
func (c *Conn) PeerClose() *protocol.CloseError { return c.peerClose }

// WriteText sends msg as a single text frame.
func (c *Conn) WriteText(ctx context.Context, msg string) error {
	return c.WriteMessage(ctx, protocol.OpcodeText, []byte(msg))
}

// WriteMessage sends payload as one unfragmented text or binary frame.
func (c *Conn) WriteMessage(ctx context.Context, op protocol.Opcode, payload []byte) error {
	if c.lc.state != StateOpen {
		return c.misuse("write message", ErrNotOpen)
	}
	if op != protocol.OpcodeText && op != protocol.OpcodeBinary {
		return c.misuse("write message", fmt.Errorf("%w: %v", errDataOpcode, op))
	}
	if op == protocol.OpcodeText && !utf8.Valid(payload) {
		return c.misuse("write message", ErrInvalidUTF8)
	}
	if err := c.setDeadline(ctx, c.cfg.IOTimeout); err != nil {
		return c.abort("write message", err)
	}
	if err := c.writeFrame(op, payload); err != nil {
		return c.abort("write message", err)
	}
	return nil
}

// ReadMessage returns the next complete data message. Pings are answered
// and pongs dropped while waiting. A close frame from the peer is answered,
// the session moves to Closed and the error wraps ErrClosedWithoutMessage
// and the peer's *protocol.CloseError.
func (c *Conn) ReadMessage(ctx context.Context) (protocol.Opcode, []byte, error) {
	if c.lc.state != StateOpen {
		return 0, nil, c.misuse("read message", ErrNotOpen)
	}
	if err := c.setDeadline(ctx, c.cfg.IOTimeout); err != nil {
		return 0, nil, c.abort("read message", err)
	}

	var (
		msgOp   protocol.Opcode
		msg     []byte
		started bool
	)
	for {
		f, err := c.readFrame()
		if err != nil {
			return 0, nil, c.readFailure(err)
		}
		switch f.Opcode {
		case protocol.OpcodePing:
			if err := c.writeFrame(protocol.OpcodePong, f.Payload); err != nil {
				return 0, nil, c.abort("write pong", err)
			}
			c.cfg.Metrics.Add(control.MetricWSPingsAnswered, 1)
			continue
		case protocol.OpcodePong:
			continue
		case protocol.OpcodeClose:
			return 0, nil, c.peerClosed(f.Payload)
		case protocol.OpcodeText, protocol.OpcodeBinary:
			if started {
				return 0, nil, c.fail("read message", protocol.CloseProtocolError, ErrInterleavedData)
			}
			started, msgOp = true, f.Opcode
		case protocol.OpcodeContinuation:
			if !started {
				return 0, nil, c.fail("read message", protocol.CloseProtocolError, ErrUnexpectedContinue)
			}
		}

		if int64(len(msg))+int64(len(f.Payload)) > c.cfg.MaxMessageBytes {
			return 0, nil, c.fail("read message", protocol.CloseMessageTooBig, ErrMessageTooLarge)
		}
		msg = append(msg, f.Payload...)
		if !f.Fin {
			continue
		}
		if msgOp == protocol.OpcodeText && !utf8.Valid(msg) {
			return 0, nil, c.fail("read message", protocol.CloseInvalidPayloadData, ErrInvalidUTF8)
		}
		if msg == nil {
			msg = []byte{}
		}
		return msgOp, msg, nil
	}
}

// Close runs the closing handshake with CloseNormal, bounded by the
// configured close timeout. Closing a finished session is a no-op.
func (c *Conn) Close() error {
	return c.CloseContext(context.Background())
}

// CloseContext is Close with an additional bound from ctx.
func (c *Conn) CloseContext(ctx context.Context) error {
	if c.lc.state.Terminal() {
		return nil
	}
	c.lc.set(StateClosing)
	if err := c.setDeadline(ctx, c.cfg.CloseTimeout); err != nil {
		return c.abort("close", err)
	}
	if err := c.writeClose(protocol.CloseNormal, ""); err != nil {
		return c.abort("close", err)
	}
	for {
		f, err := c.readFrame()
		if errors.Is(err, io.EOF) {
			c.log.Debug("peer closed transport without close frame")
			return c.finish()
		}
		if err != nil {
			return c.readFailure(err)
		}
		if f.Opcode != protocol.OpcodeClose {
			c.log.Debug("discarding frame while closing", zap.Stringer("opcode", f.Opcode))
			continue
		}
		code, reason, err := protocol.DecodeClosePayload(f.Payload)
		if err != nil {
			return c.fail("close", protocol.CloseProtocolError, err)
		}
		c.peerClose = &protocol.CloseError{Code: code, Reason: reason}
		return c.finish()
	}
}

// peerClosed answers a peer-initiated close and finishes the session.
func (c *Conn) peerClosed(payload []byte) error {
	code, reason, err := protocol.DecodeClosePayload(payload)
	if err != nil {
		return c.fail("read message", protocol.CloseProtocolError, err)
	}
	c.peerClose = &protocol.CloseError{Code: code, Reason: reason}
	c.log.Debug("peer sent close", zap.Uint16("code", uint16(code)), zap.String("reason", reason))
	c.lc.set(StateClosing)
	if err := c.writeClose(protocol.CloseNormal, ""); err != nil {
		c.log.Warn("close reply failed", zap.Error(err))
	}
	if err := c.finish(); err != nil {
		c.log.Debug("close transport", zap.Error(err))
	}
	return api.NewError(api.KindProtocol, "read message",
		fmt.Errorf("%w: %w", ErrClosedWithoutMessage, c.peerClose)).WithContext("endpoint", c.ep.String())
}

func (c *Conn) readFrame() (protocol.Frame, error) {
	f, err := protocol.ReadFrame(c.br, c.cfg.MaxMessageBytes)
	if err != nil {
		return f, err
	}
	c.cfg.Metrics.Add(control.MetricWSFramesReceived, 1)
	if f.Masked {
		return f, ErrMaskedServerFrame
	}
	return f, nil
}

func (c *Conn) writeFrame(op protocol.Opcode, payload []byte) error {
	key, err := protocol.NewMaskKey()
	if err != nil {
		return err
	}
	if err := protocol.WriteFrame(c.tr, protocol.Frame{Fin: true, Opcode: op, Masked: true, MaskKey: key, Payload: payload}); err != nil {
		return err
	}
	c.cfg.Metrics.Add(control.MetricWSFramesSent, 1)
	return nil
}

func (c *Conn) writeClose(code protocol.CloseCode, reason string) error {
	if c.closeSent {
		return nil
	}
	c.closeSent = true
	return c.writeFrame(protocol.OpcodeClose, protocol.EncodeClosePayload(code, reason))
}

// readFailure maps a frame read error onto the session outcome.
func (c *Conn) readFailure(err error) error {
	switch {
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return c.fail("read frame", protocol.CloseMessageTooBig, err)
	case isViolation(err):
		return c.fail("read frame", protocol.CloseProtocolError, err)
	default:
		return c.abort("read frame", err)
	}
}

func isViolation(err error) bool {
	for _, target := range []error{
		protocol.ErrReservedBits, protocol.ErrUnknownOpcode, protocol.ErrFragmentedControl,
		protocol.ErrControlTooLarge, protocol.ErrBadLength, ErrMaskedServerFrame,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// fail reports a protocol violation: best-effort close with code, then teardown.
func (c *Conn) fail(op string, code protocol.CloseCode, cause error) error {
	if err := c.writeClose(code, ""); err != nil {
		c.log.Warn("best-effort close failed", zap.Uint16("code", uint16(code)), zap.Error(err))
	}
	c.teardown()
	return api.NewError(api.KindProtocol, op, cause).WithContext("endpoint", c.ep.String())
}

// misuse reports a call the session rejected without touching the wire.
// The session state is unchanged.
func (c *Conn) misuse(op string, cause error) error {
	return api.NewError(api.KindProtocol, op, cause).WithContext("state", c.lc.state.String())
}

// abort reports a transport failure and tears the session down.
func (c *Conn) abort(op string, cause error) error {
	c.teardown()
	return api.NewError(api.KindTransport, op, cause).WithContext("endpoint", c.ep.String())
}

func (c *Conn) teardown() {
	c.lc.set(StateFailed)
	_ = c.tr.Close()
}

// release tears down a session that is still live; finished sessions are left alone.
func (c *Conn) release() {
	if !c.lc.state.Terminal() {
		c.teardown()
	}
}

func (c *Conn) finish() error {
	err := c.tr.Close()
	c.lc.set(StateClosed)
	return err
}

func (c *Conn) setDeadline(ctx context.Context, timeout time.Duration) error {
	ctxDeadline, ok := ctx.Deadline()
	return c.tr.SetDeadline(control.Deadline(time.Now(), timeout, ctxDeadline, ok))
}

// File: wsclient/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package wsclient opens client WebSocket sessions over a plain TCP
// transport and runs single text round trips.

package wsclient

import (
	"bufio"
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/momentics/syncwire/api"
	"github.com/momentics/syncwire/control"
	"github.com/momentics/syncwire/core/protocol"
	"github.com/momentics/syncwire/transport"
)

// Client opens sessions. It is safe for concurrent use; each session owns
// its own connection.
type Client struct {
	cfg      control.Config
	log      *zap.Logger
	resolver api.Resolver
	dialer   api.Dialer
	hook     StateHook
}

// Option customizes a Client.
type Option func(*Client)

// WithResolver replaces the system resolver.
func WithResolver(r api.Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

// WithDialer replaces the TCP dialer.
func WithDialer(d api.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithStateHook installs h on every session the client opens.
func WithStateHook(h StateHook) Option {
	return func(c *Client) { c.hook = h }
}

// New validates cfg and builds a Client.
func New(cfg control.Config, opts ...Option) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:      cfg,
		log:      cfg.Logger.Named("ws"),
		resolver: &transport.NetResolver{},
		dialer:   &transport.TCPDialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Dial resolves host, connects and performs the opening handshake for path.
// The returned Conn is Open.
func (c *Client) Dial(ctx context.Context, host, port, path string) (*Conn, error) {
	lc := &lifecycle{state: StateResolving, hook: c.hook, log: c.log}

	eps, err := c.resolver.Resolve(ctx, host, port)
	if err == nil && len(eps) == 0 {
		err = transport.ErrNoAddresses
	}
	if err != nil {
		lc.set(StateFailed)
		return nil, api.NewError(api.KindResolution, "resolve", err).
			WithContext("host", host).WithContext("port", port)
	}

	lc.set(StateConnecting)
	tr, ep, err := transport.Connect(ctx, c.dialer, eps, c.log, c.cfg.Metrics)
	if err != nil {
		lc.set(StateFailed)
		return nil, err
	}

	conn := &Conn{tr: tr, ep: ep, cfg: c.cfg, log: c.log.With(zap.Stringer("endpoint", ep)), lc: lc}
	conn.lc.log = conn.log
	lc.set(StateHandshaking)
	if err := conn.handshake(ctx, api.HostHeader(host, port), path); err != nil {
		return nil, err
	}
	lc.set(StateOpen)
	return conn, nil
}

func (c *Conn) handshake(ctx context.Context, host, path string) error {
	if err := c.setDeadline(ctx, c.cfg.IOTimeout); err != nil {
		return c.abort("handshake", err)
	}
	key, err := protocol.NewChallengeKey()
	if err != nil {
		c.teardown()
		return api.NewError(api.KindHandshake, "handshake", err)
	}
	if err := protocol.WriteClientHandshake(c.tr, host, path, key, c.cfg.UserAgent); err != nil {
		return c.abort("write handshake", err)
	}
	head := &protocol.HeadLimiter{R: c.tr, N: c.cfg.MaxHeaderBytes}
	c.br = bufio.NewReader(head)
	resp, err := protocol.ReadServerHandshake(c.br, key)
	if err != nil {
		c.teardown()
		return api.NewError(api.KindHandshake, "read handshake", err).WithContext("endpoint", c.ep.String())
	}
	head.Lift()
	c.log.Debug("handshake complete", zap.String("path", path), zap.String("server", resp.Header.Get("Server")))
	return nil
}

// ExchangeText opens a session, sends message as one text frame, returns
// the first text message received and closes the session normally.
// Invalid UTF-8 in message is rejected before any network activity.
func (c *Client) ExchangeText(ctx context.Context, host, port, path, message string) (string, error) {
	if !utf8.ValidString(message) {
		return "", api.NewError(api.KindProtocol, "write message", ErrInvalidUTF8)
	}
	conn, err := c.Dial(ctx, host, port, path)
	if err != nil {
		return "", err
	}
	defer conn.release()
	if err := conn.WriteText(ctx, message); err != nil {
		return "", err
	}
	op, data, err := conn.ReadMessage(ctx)
	if err != nil {
		return "", err
	}
	if op != protocol.OpcodeText {
		return "", conn.fail("read message", protocol.CloseUnsupportedData, ErrUnexpectedBinary)
	}
	if err := conn.CloseContext(ctx); err != nil {
		return "", err
	}
	return string(data), nil
}

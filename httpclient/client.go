// File: httpclient/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package httpclient performs one synchronous HTTP/1.x request per call:
// resolve, connect, write, read the full response, half-close, close.

package httpclient

import (
	"bufio"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/syncwire/api"
	"github.com/momentics/syncwire/control"
	"github.com/momentics/syncwire/transport"
)

// Client issues single requests. It holds no per-call state and is safe
// for concurrent use; every call owns its own connection.
type Client struct {
	cfg      control.Config
	log      *zap.Logger
	resolver api.Resolver
	dialer   api.Dialer
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
		log:      cfg.Logger.Named("http"),
		resolver: &transport.NetResolver{},
		dialer:   &transport.TCPDialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch GETs target from host:port. version "1.0" selects HTTP/1.0,
// anything else HTTP/1.1. The Host field carries the port unless it is 80.
func (c *Client) Fetch(ctx context.Context, host, port, target, version string) (*Response, error) {
	req := NewRequest(http.MethodGet, target, ParseVersion(version), api.HostHeader(host, port), c.cfg.UserAgent)
	return c.Do(ctx, host, port, req)
}

// Do sends req to host:port and returns the complete response.
// On error no response is returned.
func (c *Client) Do(ctx context.Context, host, port string, req *Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, api.NewError(api.KindProtocol, "build request", err)
	}

	tr, ep, err := transport.Open(ctx, c.resolver, c.dialer, host, port, c.log, c.cfg.Metrics)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := tr.Close(); cerr != nil {
			c.log.Debug("close transport", zap.Error(cerr))
		}
	}()
	log := c.log.With(zap.Stringer("endpoint", ep))

	ctxDeadline, hasDeadline := ctx.Deadline()
	if dl := control.Deadline(time.Now(), c.cfg.IOTimeout, ctxDeadline, hasDeadline); !dl.IsZero() {
		if err := tr.SetDeadline(dl); err != nil {
			return nil, api.NewError(api.KindTransport, "set deadline", err).WithContext("endpoint", ep.String())
		}
	}

	if _, err := req.WriteTo(tr); err != nil {
		return nil, api.NewError(api.KindTransport, "write request", err).WithContext("endpoint", ep.String())
	}
	c.cfg.Metrics.Add(control.MetricHTTPRequests, 1)
	log.Debug("request sent", zap.String("method", req.Method), zap.String("target", req.Target), zap.Stringer("version", req.Version))

	resp, err := readResponse(bufio.NewReader(tr), req.Method, c.cfg.MaxHeaderBytes, c.cfg.MaxBodyBytes)
	if err != nil {
		kind := api.KindTransport
		if isFormatError(err) {
			kind = api.KindProtocol
		}
		return nil, api.NewError(kind, "read response", err).WithContext("endpoint", ep.String())
	}
	c.cfg.Metrics.Add(control.MetricHTTPResponses, 1)
	log.Debug("response read", zap.Int("status", resp.StatusCode), zap.Int("body", len(resp.Body)))

	if err := tr.CloseWrite(); err != nil {
		if !transport.IsNotConnected(err) {
			return nil, api.NewError(api.KindTransport, "shutdown", err).WithContext("endpoint", ep.String())
		}
		log.Debug("peer already disconnected on shutdown", zap.Error(err))
	}
	return resp, nil
}

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/momentics/syncwire/api"
)

// TCPDialer opens TCP transports with TCP_NODELAY set.
type TCPDialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration
}

// Dial connects to ep.
func (d *TCPDialer) Dial(ctx context.Context, ep api.Endpoint) (api.Transport, error) {
	network := "tcp"
	switch ep.Family {
	case "ip4":
		network = "tcp4"
	case "ip6":
		network = "tcp6"
	}
	nd := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	c, err := nd.DialContext(ctx, network, ep.Addr())
	if err != nil {
		return nil, err
	}
	tc, ok := c.(*net.TCPConn)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("dial %s: unexpected connection type %T", ep, c)
	}
	if err := tc.SetNoDelay(true); err != nil {
		tc.Close()
		return nil, err
	}
	return NewTCPConn(tc), nil
}

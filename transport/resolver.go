// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"errors"
	"net"

	"github.com/momentics/syncwire/api"
)

// ErrNoAddresses is returned when a lookup succeeds but yields no usable address.
var ErrNoAddresses = errors.New("no addresses for host")

// NetResolver resolves names through net.Resolver.
// A nil Resolver field uses net.DefaultResolver.
type NetResolver struct {
	Resolver *net.Resolver
}

// Resolve returns candidates in the order reported by the system resolver.
func (r *NetResolver) Resolve(ctx context.Context, host, port string) ([]api.Endpoint, error) {
	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	p, err := res.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, err
	}
	addrs, err := res.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	eps := make([]api.Endpoint, 0, len(addrs))
	for _, a := range addrs {
		family := "ip6"
		if a.IP.To4() != nil {
			family = "ip4"
		}
		ip := a.IP.String()
		if a.Zone != "" {
			ip += "%" + a.Zone
		}
		eps = append(eps, api.Endpoint{IP: ip, Port: p, Family: family})
	}
	if len(eps) == 0 {
		return nil, ErrNoAddresses
	}
	return eps, nil
}

// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations.

package api

import (
	"net"
	"strconv"
)

// Endpoint is one resolved candidate address.
type Endpoint struct {
	IP     string
	Port   int
	Family string // "ip4" or "ip6"
}

// Addr returns the endpoint as host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.Family + "/" + e.Addr()
}

// HostHeader returns the Host field value for host and port. The port is
// omitted when it is empty or the default port for plain HTTP and ws.
func HostHeader(host, port string) string {
	if port == "" || port == "80" || port == "http" {
		return host
	}
	return net.JoinHostPort(host, port)
}

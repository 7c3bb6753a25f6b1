// File: httpclient/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Response is a fully read HTTP/1.x response owned by the caller.
type Response struct {
	Proto      string // e.g. "HTTP/1.1"
	Version    Version
	StatusCode int
	Reason     string
	Header     Header
	Body       []byte
	Trailer    Header // chunked trailers, if any
}

// StatusLine returns the status line without the line terminator.
func (r *Response) StatusLine() string {
	line := r.Proto + " " + strconv.Itoa(r.StatusCode)
	if r.Reason != "" {
		line += " " + r.Reason
	}
	return line
}

// WriteTo renders the status line, headers, a blank line and the body.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	b.WriteString(r.StatusLine())
	b.WriteString("\r\n")
	for _, f := range r.Header {
		fmt.Fprintf(&b, "%s: %s\r\n", f.Name, f.Value)
	}
	b.WriteString("\r\n")
	b.Write(r.Body)
	return b.WriteTo(w)
}

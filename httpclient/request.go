// File: httpclient/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Version is an HTTP/1.x protocol version encoded as major*10+minor.
type Version int

const (
	HTTP10 Version = 10
	HTTP11 Version = 11
)

// ParseVersion maps "1.0" to HTTP10; every other value selects HTTP11.
func ParseVersion(s string) Version {
	if s == "1.0" {
		return HTTP10
	}
	return HTTP11
}

func (v Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", int(v)/10, int(v)%10)
}

// Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered field list. Lookups are case-insensitive;
// wire order is insertion order.
type Header []Field

// Get returns the first value for name, or "".
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h Header) Values(name string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Add appends a field.
func (h *Header) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Set replaces the first field named name, dropping later duplicates,
// or appends it when absent.
func (h *Header) Set(name, value string) {
	out := (*h)[:0]
	found := false
	for _, f := range *h {
		if strings.EqualFold(f.Name, name) {
			if found {
				continue
			}
			found = true
			f.Value = value
		}
		out = append(out, f)
	}
	if !found {
		out = append(out, Field{Name: name, Value: value})
	}
	*h = out
}

// Clone returns an independent copy.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(Header(nil), h...)
}

var errInvalidRequest = errors.New("invalid request")

// Request is a bodiless HTTP/1.x request. Treat it as immutable once built.
type Request struct {
	Method  string
	Target  string
	Version Version
	Header  Header
}

// NewRequest builds a request carrying Host and User-Agent fields.
// An empty method means GET and an empty target means "/".
func NewRequest(method, target string, version Version, host, userAgent string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	if target == "" {
		target = "/"
	}
	r := &Request{Method: method, Target: target, Version: version}
	r.Header.Add("Host", host)
	if userAgent != "" {
		r.Header.Add("User-Agent", userAgent)
	}
	return r
}

func (r *Request) validate() error {
	if r.Version != HTTP10 && r.Version != HTTP11 {
		return fmt.Errorf("%w: unsupported version %d", errInvalidRequest, r.Version)
	}
	if r.Method == "" || strings.ContainsAny(r.Method, " \t\r\n") {
		return fmt.Errorf("%w: method %q", errInvalidRequest, r.Method)
	}
	if r.Target == "" || strings.ContainsAny(r.Target, " \t\r\n") {
		return fmt.Errorf("%w: target %q", errInvalidRequest, r.Target)
	}
	for _, f := range r.Header {
		if f.Name == "" || strings.ContainsAny(f.Name, " \t\r\n:") || strings.ContainsAny(f.Value, "\r\n") {
			return fmt.Errorf("%w: header %q", errInvalidRequest, f.Name)
		}
	}
	return nil
}

// Bytes returns the wire form of the request.
func (r *Request) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s %s\r\n", r.Method, r.Target, r.Version)
	for _, f := range r.Header {
		fmt.Fprintf(&b, "%s: %s\r\n", f.Name, f.Value)
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

// WriteTo writes the full request with a single Write and reports short writes.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	buf := r.Bytes()
	n, err := w.Write(buf)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

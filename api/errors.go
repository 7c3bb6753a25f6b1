// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the HTTP and WebSocket clients.

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure by the stage that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindResolution
	KindConnection
	KindHandshake
	KindTransport
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindConnection:
		return "connection"
	case KindHandshake:
		return "handshake"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrResolution = &Error{Kind: KindResolution}
	ErrConnection = &Error{Kind: KindConnection}
	ErrHandshake  = &Error{Kind: KindHandshake}
	ErrTransport  = &Error{Kind: KindTransport}
	ErrProtocol   = &Error{Kind: KindProtocol}
)

// Error represents a classified failure with the failing operation and context.
type Error struct {
	Kind    Kind
	Op      string
	Context map[string]any
	Err     error
}

// NewError creates a new classified error wrapping cause.
func NewError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare kind sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

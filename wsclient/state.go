// File: wsclient/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsclient

import (
	"fmt"

	"go.uber.org/zap"
)

// State is the lifecycle stage of a WebSocket session.
type State int

const (
	StateResolving State = iota
	StateConnecting
	StateHandshaking
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

var stateNames = [...]string{
	StateResolving:   "resolving",
	StateConnecting:  "connecting",
	StateHandshaking: "handshaking",
	StateOpen:        "open",
	StateClosing:     "closing",
	StateClosed:      "closed",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateClosed || s == StateFailed }

// StateHook observes every state transition of a session.
type StateHook func(from, to State)

// lifecycle tracks one session's state. Transitions out of a terminal
// state are ignored.
type lifecycle struct {
	state State
	hook  StateHook
	log   *zap.Logger
}

func (l *lifecycle) set(to State) {
	if l.state == to || l.state.Terminal() {
		return
	}
	from := l.state
	l.state = to
	l.log.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
	if l.hook != nil {
		l.hook(from, to)
	}
}

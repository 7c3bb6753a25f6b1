package api_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/momentics/syncwire/api"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("fetch: %w", api.NewError(api.KindProtocol, "read status line", io.ErrUnexpectedEOF))

	if !errors.Is(err, api.ErrProtocol) {
		t.Fatal("expected errors.Is to match ErrProtocol")
	}
	if errors.Is(err, api.ErrTransport) {
		t.Fatal("ErrTransport must not match a protocol error")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatal("cause should remain reachable through Unwrap")
	}
	if got := api.KindOf(err); got != api.KindProtocol {
		t.Errorf("KindOf = %v, want protocol", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := api.KindOf(errors.New("boom")); got != api.KindUnknown {
		t.Errorf("KindOf = %v, want unknown", got)
	}
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := api.NewError(api.KindConnection, "connect", errors.New("refused")).
		WithContext("host", "example.com").
		WithContext("attempts", 3)

	msg := err.Error()
	for _, want := range []string{"connection error", "connect", "refused", "attempts=3", "host=example.com"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestEndpointAddr(t *testing.T) {
	ep := api.Endpoint{IP: "::1", Port: 8080, Family: "ip6"}
	if got := ep.Addr(); got != "[::1]:8080" {
		t.Errorf("Addr = %q", got)
	}
	if got := ep.String(); got != "ip6/[::1]:8080" {
		t.Errorf("String = %q", got)
	}
}

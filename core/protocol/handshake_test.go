package protocol_test

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/momentics/syncwire/core/protocol"
)

func TestComputeAcceptKeyRFCExample(t *testing.T) {
	if got := protocol.ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("accept = %q", got)
	}
}

func TestNewChallengeKeyIsSixteenBytes(t *testing.T) {
	key, err := protocol.NewChallengeKey()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		t.Fatalf("key %q not base64: %v", key, err)
	}
	if len(raw) != 16 {
		t.Fatalf("decoded key length %d", len(raw))
	}
	other, _ := protocol.NewChallengeKey()
	if other == key {
		t.Fatal("challenge keys repeat")
	}
}

func TestWriteClientHandshake(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.WriteClientHandshake(&buf, "echo.example", "/chat", "k3y", "ua/1"); err != nil {
		t.Fatal(err)
	}
	req, err := http.ReadRequest(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("handshake is not a valid request: %v", err)
	}
	if req.Method != http.MethodGet || req.RequestURI != "/chat" || req.Host != "echo.example" {
		t.Errorf("request line/host: %s %s %s", req.Method, req.RequestURI, req.Host)
	}
	checks := map[string]string{
		"Upgrade":               "websocket",
		"Connection":            "Upgrade",
		"Sec-Websocket-Key":     "k3y",
		"Sec-Websocket-Version": "13",
		"User-Agent":            "ua/1",
	}
	for k, want := range checks {
		if got := req.Header.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestWriteClientHandshakeDefaultsPath(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.WriteClientHandshake(&buf, "h", "", "k", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "GET / HTTP/1.1\r\n") {
		t.Fatalf("request line: %q", buf.String())
	}
	if strings.Contains(buf.String(), "User-Agent") {
		t.Fatal("empty user agent should be omitted")
	}
}

func TestReadServerHandshake(t *testing.T) {
	const key = "dGhlIHNhbXBsZSBub25jZQ=="
	good := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"

	t.Run("ok keeps trailing bytes", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader(good + "\x81\x02hi"))
		if _, err := protocol.ReadServerHandshake(br, key); err != nil {
			t.Fatal(err)
		}
		rest, _ := io.ReadAll(br)
		if string(rest) != "\x81\x02hi" {
			t.Fatalf("buffered frame bytes lost: %q", rest)
		}
	})

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not 101", "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", protocol.ErrBadHandshakeStatus},
		{"no upgrade", "HTTP/1.1 101 Switching Protocols\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n", protocol.ErrInvalidUpgradeHeaders},
		{"bad accept", "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: upgrade\r\nSec-WebSocket-Accept: nope\r\n\r\n", protocol.ErrAcceptMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := protocol.ReadServerHandshake(bufio.NewReader(strings.NewReader(tc.raw)), key)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := protocol.ReadServerHandshake(bufio.NewReader(strings.NewReader("SSH-2.0\r\n\r\n")), key); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestHeadLimiterBoundsHandshake(t *testing.T) {
	raw := "HTTP/1.1 101 Switching Protocols\r\nX-Pad: " + strings.Repeat("p", 4096) + "\r\n\r\n"
	lim := &protocol.HeadLimiter{R: strings.NewReader(raw), N: 256}
	_, err := protocol.ReadServerHandshake(bufio.NewReader(lim), "dGhlIHNhbXBsZSBub25jZQ==")
	if !errors.Is(err, protocol.ErrHandshakeTooLarge) {
		t.Fatalf("err = %v, want ErrHandshakeTooLarge", err)
	}
}

func TestHeadLimiterLiftKeepsTrailingBytes(t *testing.T) {
	key := "dGhlIHNhbXBsZSBub25jZQ=="
	head := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + protocol.ComputeAcceptKey(key) + "\r\n\r\n"
	tail := strings.Repeat("f", 512)
	lim := &protocol.HeadLimiter{R: strings.NewReader(head + tail), N: len(head) + 8}
	br := bufio.NewReader(lim)
	if _, err := protocol.ReadServerHandshake(br, key); err != nil {
		t.Fatal(err)
	}
	lim.Lift()
	rest, err := io.ReadAll(br)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != tail {
		t.Fatalf("read %d trailing bytes, want %d", len(rest), len(tail))
	}
}

package httpclient

import (
	"bufio"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"
)

func parse(t *testing.T, method, raw string) (*Response, error) {
	t.Helper()
	return readResponse(bufio.NewReader(strings.NewReader(raw)), method, 1<<10, 1<<10)
}

func TestReadResponseBodies(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		raw     string
		status  int
		body    string
		trailer string
	}{
		{
			name:   "content length",
			raw:    "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhelloEXTRA",
			status: 200, body: "hello",
		},
		{
			name:   "equal duplicate content length",
			raw:    "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Length: 3, 3\r\n\r\nabc",
			status: 200, body: "abc",
		},
		{
			name:   "chunked with trailer",
			raw:    "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4;ext=1\r\nWiki\r\n5\r\npedia\r\n0\r\nX-Checksum: abc\r\n\r\n",
			status: 200, body: "Wikipedia", trailer: "abc",
		},
		{
			name:   "transfer encoding beats content length",
			raw:    "HTTP/1.1 200 OK\r\nContent-Length: 100\r\nTransfer-Encoding: gzip, chunked\r\n\r\n2\r\nhi\r\n0\r\n\r\n",
			status: 200, body: "hi",
		},
		{
			name:   "non-chunked transfer encoding reads to eof",
			raw:    "HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip\r\n\r\nrest of stream",
			status: 200, body: "rest of stream",
		},
		{
			name:   "close delimited",
			raw:    "HTTP/1.0 200 OK\r\nServer: x\r\n\r\nuntil close",
			status: 200, body: "until close",
		},
		{
			name:   "head has no body",
			method: http.MethodHead,
			raw:    "HTTP/1.1 200 OK\r\nContent-Length: 42\r\n\r\n",
			status: 200,
		},
		{
			name:   "no content",
			raw:    "HTTP/1.1 204 No Content\r\n\r\ntrailing garbage",
			status: 204,
		},
		{
			name:   "not modified",
			raw:    "HTTP/1.1 304 Not Modified\r\nContent-Length: 10\r\n\r\n",
			status: 304,
		},
		{
			name:   "interim responses skipped",
			raw:    "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 103 Early Hints\r\nLink: </a>\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok",
			status: 200, body: "ok",
		},
		{
			name:   "switching protocols is final",
			raw:    "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\n\r\n",
			status: 101,
		},
		{
			name:   "bare lf line endings",
			raw:    "HTTP/1.1 200 OK\nContent-Length: 1\n\nz",
			status: 200, body: "z",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}
			resp, err := parse(t, method, tc.raw)
			if err != nil {
				t.Fatalf("readResponse: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if string(resp.Body) != tc.body {
				t.Errorf("body = %q, want %q", resp.Body, tc.body)
			}
			if got := resp.Trailer.Get("X-Checksum"); got != tc.trailer {
				t.Errorf("trailer = %q, want %q", got, tc.trailer)
			}
		})
	}
}

func TestReadResponseStatusLine(t *testing.T) {
	resp, err := parse(t, http.MethodGet, "HTTP/1.1 404 Not Found Here\r\nA: 1\r\na: 2\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Proto != "HTTP/1.1" || resp.Version != HTTP11 || resp.Reason != "Not Found Here" {
		t.Errorf("parsed %+v", resp)
	}
	if got := resp.Header.Values("A"); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("header values %v", got)
	}
	if resp.StatusLine() != "HTTP/1.1 404 Not Found Here" {
		t.Errorf("StatusLine %q", resp.StatusLine())
	}

	resp, err = parse(t, http.MethodGet, "HTTP/1.0 200\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Version != HTTP10 || resp.Reason != "" || resp.StatusLine() != "HTTP/1.0 200" {
		t.Errorf("parsed %+v", resp)
	}
}

func TestReadResponseRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"garbage status", "SSH-2.0-OpenSSH\r\n\r\n", ErrMalformedStatusLine},
		{"http2 status", "HTTP/2 200 OK\r\n\r\n", ErrMalformedStatusLine},
		{"short code", "HTTP/1.1 20 OK\r\n\r\n", ErrMalformedStatusLine},
		{"alpha code", "HTTP/1.1 2x0 OK\r\n\r\n", ErrMalformedStatusLine},
		{"header without colon", "HTTP/1.1 200 OK\r\nbogus\r\n\r\n", ErrMalformedHeader},
		{"space in name", "HTTP/1.1 200 OK\r\nBad Name: v\r\n\r\n", ErrMalformedHeader},
		{"obs fold", "HTTP/1.1 200 OK\r\nA: 1\r\n  continued\r\n\r\n", ErrMalformedHeader},
		{"conflicting length", "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Length: 4\r\n\r\nabcd", ErrBadContentLength},
		{"negative length", "HTTP/1.1 200 OK\r\nContent-Length: -1\r\n\r\n", ErrBadContentLength},
		{"signed length", "HTTP/1.1 200 OK\r\nContent-Length: +3\r\n\r\nabc", ErrBadContentLength},
		{"bad chunk size", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n", ErrBadChunk},
		{"missing chunk crlf", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n2\r\nhiXX0\r\n\r\n", ErrBadChunk},
		{"truncated headers", "HTTP/1.1 200 OK\r\nA: 1\r\n", ErrTruncated},
		{"truncated body", "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort", ErrTruncated},
		{"truncated chunk", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n10\r\nabc", ErrTruncated},
		{"empty stream", "", ErrTruncated},
		{"header too large", "HTTP/1.1 200 OK\r\nX: " + strings.Repeat("a", 2000) + "\r\n\r\n", ErrHeaderTooLarge},
		{"body too large", "HTTP/1.1 200 OK\r\nContent-Length: 5000\r\n\r\n", ErrBodyTooLarge},
		{"huge chunk after data", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n1\r\na\r\n7fffffffffffffff\r\n", ErrBodyTooLarge},
		{"eof body too large", "HTTP/1.1 200 OK\r\n\r\n" + strings.Repeat("b", 2000), ErrBodyTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(t, http.MethodGet, tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !isFormatError(err) {
				t.Fatalf("%v not classified as a format error", err)
			}
		})
	}
}

func TestReadUntilEOFWithUnboundedLimit(t *testing.T) {
	raw := "HTTP/1.0 200 OK\r\n\r\nhello body"
	resp, err := readResponse(bufio.NewReader(strings.NewReader(raw)), http.MethodGet, 1<<10, math.MaxInt64)
	if err != nil {
		t.Fatalf("readResponse: %v", err)
	}
	if string(resp.Body) != "hello body" {
		t.Fatalf("body = %q, want %q", resp.Body, "hello body")
	}
}

func TestDeclaredSizesDoNotPreallocate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"content length", "HTTP/1.1 200 OK\r\nContent-Length: 9223372036854775807\r\n\r\nshort"},
		{"chunk size", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n7fffffffffffffff\r\nshort"},
		{"chunk size after data", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n1\r\na\r\n7ffffffffffffffe\r\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readResponse(bufio.NewReader(strings.NewReader(tc.raw)), http.MethodGet, 1<<10, math.MaxInt64)
			if !errors.Is(err, ErrTruncated) {
				t.Fatalf("err = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestIsFormatErrorIgnoresTransportFailures(t *testing.T) {
	if isFormatError(errors.New("connection reset by peer")) {
		t.Fatal("transport failure classified as format error")
	}
}

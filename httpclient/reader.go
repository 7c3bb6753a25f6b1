// File: httpclient/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP/1.x response parsing: status line, header block and body framing
// (none, Content-Length, chunked, close-delimited).

package httpclient

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Response format violations.
var (
	ErrMalformedStatusLine = errors.New("malformed status line")
	ErrMalformedHeader     = errors.New("malformed header line")
	ErrHeaderTooLarge      = errors.New("response header too large")
	ErrBadContentLength    = errors.New("invalid Content-Length")
	ErrBadChunk            = errors.New("malformed chunked encoding")
	ErrBodyTooLarge        = errors.New("response body too large")
	ErrTruncated           = errors.New("response truncated")
)

type responseReader struct {
	br        *bufio.Reader
	headerCap int // remaining bytes for status line, headers and trailers
	maxBody   int64
}

// readResponse reads one final response for a request made with method.
// Interim 1xx responses other than 101 are skipped.
func readResponse(br *bufio.Reader, method string, maxHeader int, maxBody int64) (*Response, error) {
	rr := &responseReader{br: br, headerCap: maxHeader, maxBody: maxBody}
	for {
		resp, err := rr.readHead()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode/100 == 1 && resp.StatusCode != http.StatusSwitchingProtocols {
			continue
		}
		if err := rr.readBody(resp, method); err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func (rr *responseReader) readHead() (*Response, error) {
	line, err := rr.readLine()
	if err != nil {
		return nil, fmt.Errorf("read status line: %w", err)
	}
	resp, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	resp.Header, err = rr.readFields()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	return resp, nil
}

func parseStatusLine(line string) (*Response, error) {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedStatusLine, line)
	}
	var version Version
	switch {
	case proto == "HTTP/1.0":
		version = HTTP10
	case len(proto) == 8 && strings.HasPrefix(proto, "HTTP/1.") && proto[7] >= '1' && proto[7] <= '9':
		version = HTTP11
	default:
		return nil, fmt.Errorf("%w: protocol %q", ErrMalformedStatusLine, proto)
	}
	codeStr, reason, _ := strings.Cut(rest, " ")
	if len(codeStr) != 3 {
		return nil, fmt.Errorf("%w: status code %q", ErrMalformedStatusLine, codeStr)
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 {
		return nil, fmt.Errorf("%w: status code %q", ErrMalformedStatusLine, codeStr)
	}
	return &Response{Proto: proto, Version: version, StatusCode: code, Reason: reason}, nil
}

// readFields reads header lines up to and including the empty line.
func (rr *responseReader) readFields() (Header, error) {
	var h Header
	for {
		line, err := rr.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		if line[0] == ' ' || line[0] == '\t' {
			return nil, fmt.Errorf("%w: obsolete line folding", ErrMalformedHeader)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		h.Add(name, strings.Trim(value, " \t"))
	}
}

// readLine returns one line without its CRLF (bare LF is tolerated),
// charging it against the header budget.
func (rr *responseReader) readLine() (string, error) {
	var buf []byte
	for {
		chunk, err := rr.br.ReadSlice('\n')
		if len(buf)+len(chunk) > rr.headerCap {
			return "", ErrHeaderTooLarge
		}
		buf = append(buf, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return "", eofIsTruncation(err)
	}
	rr.headerCap -= len(buf)
	buf = bytes.TrimSuffix(buf, []byte{'\n'})
	buf = bytes.TrimSuffix(buf, []byte{'\r'})
	return string(buf), nil
}

func (rr *responseReader) readBody(resp *Response, method string) error {
	code := resp.StatusCode
	if method == http.MethodHead || code/100 == 1 || code == http.StatusNoContent || code == http.StatusNotModified {
		return nil
	}

	if te := resp.Header.Values("Transfer-Encoding"); len(te) > 0 {
		if lastToken(te) == "chunked" {
			return rr.readChunked(resp)
		}
		return rr.readUntilEOF(resp)
	}

	if cl := resp.Header.Values("Content-Length"); len(cl) > 0 {
		n, err := parseContentLength(cl)
		if err != nil {
			return err
		}
		if n > rr.maxBody {
			return fmt.Errorf("%w: Content-Length %d", ErrBodyTooLarge, n)
		}
		var body bytes.Buffer
		if _, err := io.CopyN(&body, rr.br, n); err != nil {
			return fmt.Errorf("read body: %w", eofIsTruncation(err))
		}
		resp.Body = body.Bytes()
		return nil
	}

	return rr.readUntilEOF(resp)
}

func (rr *responseReader) readUntilEOF(resp *Response) error {
	limit := rr.maxBody
	if limit < math.MaxInt64 {
		limit++
	}
	body, err := io.ReadAll(io.LimitReader(rr.br, limit))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > rr.maxBody {
		return ErrBodyTooLarge
	}
	resp.Body = body
	return nil
}

func (rr *responseReader) readChunked(resp *Response) error {
	var body bytes.Buffer
	for {
		line, err := rr.readChunkLine()
		if err != nil {
			return err
		}
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.Trim(line, " \t")
		size, err := strconv.ParseInt(line, 16, 64)
		if err != nil || size < 0 || line == "" {
			return fmt.Errorf("%w: chunk size %q", ErrBadChunk, line)
		}
		if size == 0 {
			break
		}
		if size > rr.maxBody-int64(body.Len()) {
			return ErrBodyTooLarge
		}
		if _, err := io.CopyN(&body, rr.br, size); err != nil {
			return fmt.Errorf("read chunk: %w", eofIsTruncation(err))
		}
		if err := rr.expectCRLF(); err != nil {
			return err
		}
	}
	trailer, err := rr.readFields()
	if err != nil {
		return fmt.Errorf("read trailers: %w", err)
	}
	resp.Body = body.Bytes()
	resp.Trailer = trailer
	return nil
}

// readChunkLine reads a chunk-size line; chunk lines are not charged against
// the header budget but are bounded to 4 KiB each.
func (rr *responseReader) readChunkLine() (string, error) {
	saved := rr.headerCap
	rr.headerCap = 4 << 10
	line, err := rr.readLine()
	rr.headerCap = saved
	if errors.Is(err, ErrHeaderTooLarge) {
		return "", fmt.Errorf("%w: chunk size line too long", ErrBadChunk)
	}
	if err != nil {
		return "", fmt.Errorf("read chunk size: %w", err)
	}
	return line, nil
}

func (rr *responseReader) expectCRLF() error {
	var crlf [2]byte
	if _, err := io.ReadFull(rr.br, crlf[:]); err != nil {
		return fmt.Errorf("read chunk terminator: %w", eofIsTruncation(err))
	}
	if crlf != [2]byte{'\r', '\n'} {
		return fmt.Errorf("%w: expected CRLF after chunk, got %q", ErrBadChunk, crlf[:])
	}
	return nil
}

// parseContentLength accepts repeated or comma-joined values only when they agree.
func parseContentLength(values []string) (int64, error) {
	n := int64(-1)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.Trim(part, " \t")
			m, err := strconv.ParseInt(part, 10, 64)
			if err != nil || m < 0 || part[0] == '+' {
				return 0, fmt.Errorf("%w: %q", ErrBadContentLength, v)
			}
			if n >= 0 && m != n {
				return 0, fmt.Errorf("%w: conflicting values %v", ErrBadContentLength, values)
			}
			n = m
		}
	}
	return n, nil
}

func lastToken(values []string) string {
	last := values[len(values)-1]
	if i := strings.LastIndexByte(last, ','); i >= 0 {
		last = last[i+1:]
	}
	return strings.ToLower(strings.Trim(last, " \t"))
}

// eofIsTruncation maps an end of stream in the middle of a message to ErrTruncated.
func eofIsTruncation(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %w", ErrTruncated, io.ErrUnexpectedEOF)
	}
	return err
}

// isFormatError reports whether err describes a malformed or incomplete
// response rather than a failing transport.
func isFormatError(err error) bool {
	for _, target := range []error{
		ErrMalformedStatusLine, ErrMalformedHeader, ErrHeaderTooLarge,
		ErrBadContentLength, ErrBadChunk, ErrBodyTooLarge, ErrTruncated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

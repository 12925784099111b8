/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package engine

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/nabbar/golib/handler"
)

// ParseOutcome is what one drive of the request parser decided.
type ParseOutcome int

const (
	// ParseParked means the caller should return control to the poller
	// and retry on the next readiness event; no terminal decision made.
	ParseParked ParseOutcome = iota
	// ParseReady means gate 6 was reached: Connection.Ready is true. The
	// caller checks Connection.parseFailed to know whether to dispatch to
	// the handler or emit a 400.
	ParseReady
	// ParsePeerClosed means the peer closed the connection before a
	// complete request arrived; the caller closes silently.
	ParsePeerClosed
	// ParseIOError means the read adapter reported an unrecoverable
	// error; the caller closes.
	ParseIOError
)

// findBlankLine scans buf from offset `from` for the end-of-headers marker,
// tolerating both CRLFCRLF and the bare-LF variant LFLF the spec requires.
// It returns the offset of the first byte after the marker and true, or
// the offset to resume scanning from (three bytes before the tail, so a
// marker split across two reads is still found) and false.
func findBlankLine(buf []byte, from int) (int, bool) {
	if from > len(buf) {
		from = len(buf)
	}

	if idx := bytes.Index(buf[from:], []byte("\r\n\r\n")); idx >= 0 {
		return from + idx + 4, true
	}
	if idx := bytes.Index(buf[from:], []byte("\n\n")); idx >= 0 {
		return from + idx + 2, true
	}

	resume := len(buf) - 3
	if resume < from {
		resume = from
	}
	return resume, false
}

// parseTopPart decodes the request line and headers out of buf[:headEnd]
// into req, returning the Content-Length header value (0 if absent).
func parseTopPart(buf []byte, headEnd int, req *handler.Request) (contentLength int, err error) {
	head := string(buf[:headEnd])
	head = strings.ReplaceAll(head, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(head, "\n"), "\n")

	if len(lines) == 0 || lines[0] == "" {
		return 0, errMalformedRequest
	}

	requestLine := strings.Fields(lines[0])
	if len(requestLine) != 3 {
		return 0, errMalformedRequest
	}

	req.Method = requestLine[0]
	req.Proto = requestLine[2]

	target := requestLine[1]
	if q := strings.IndexByte(target, '?'); q >= 0 {
		req.Path = target[:q]
		req.Query = target[q+1:]
	} else {
		req.Path = target
	}

	req.Headers = make(handler.Header)

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return 0, errMalformedRequest
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if name == "" {
			return 0, errMalformedRequest
		}
		req.Headers.Add(name, value)
	}

	if cl := req.Headers.GetFold("Content-Length"); cl != "" {
		n, perr := strconv.Atoi(cl)
		if perr != nil || n < 0 {
			return 0, errMalformedRequest
		}
		contentLength = n
	}

	return contentLength, nil
}

type parseErr string

func (e parseErr) Error() string { return string(e) }

// textualContentTypePrefixes are the Content-Type families treated as
// already-safe UTF-8/ASCII text and so passed through to the handler as raw
// bytes. Anything else (images, audio, octet-stream, archives, fonts, ...)
// is expected on the wire base64-encoded; the parser decodes it so the
// handler receives raw bytes, and sets IsBase64Encoded to record that the
// wire form was base64, the same convention Response.Body follows on the
// way out.
var textualContentTypePrefixes = []string{
	"text/",
	"application/json",
	"application/xml",
	"application/x-www-form-urlencoded",
	"application/javascript",
	"application/graphql",
}

// isBinaryContentType reports whether a request body of the given
// Content-Type should be treated as binary on ingest. An absent or
// unparseable Content-Type is treated as text, matching the body transport
// convention's default of isBase64Encoded = false.
func isBinaryContentType(contentType string) bool {
	if contentType == "" {
		return false
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}

	for _, prefix := range textualContentTypePrefixes {
		if strings.HasPrefix(ct, prefix) {
			return false
		}
	}

	return true
}

const errMalformedRequest = parseErr("malformed request")

// driveParser executes the gates of spec.md §4.5 in order, advancing as far
// as the currently-buffered bytes (plus at most one adapterRead call) allow
// without ever blocking.
func driveParser(c *Connection, readTimeout time.Duration) ParseOutcome {
	// Gate 1: top-part eligibility.
	if !c.parseStarted {
		if end, found := findBlankLine(c.inout, c.blankLineOff); found {
			cl, err := parseTopPart(c.inout, end, &c.parse)
			c.parseStarted = true
			c.topPartOffset = end
			c.blankLineOff = -1

			if err != nil {
				c.parseFailed = true
				c.Ready = true
				return ParseReady
			}
			c.contentLength = cl
		} else {
			c.blankLineOff = end
		}
	}

	// Gate 2: read-timeout check.
	if readTimeout > 0 && time.Since(c.StartRead) > readTimeout {
		c.parseFailed = true
		c.Ready = true
		return ParseReady
	}

	// Gate 3: read-more decision.
	needMoreBody := c.parseStarted && c.contentLength > 0 &&
		len(c.inout)-c.topPartOffset < c.contentLength
	needMoreHead := c.blankLineOff >= 0

	if needMoreBody || needMoreHead {
		tmp := make([]byte, 64*1024)
		res, n, err := adapterRead(c, tmp)

		switch res {
		case IOAgain:
			return ParseParked
		case IOError:
			_ = err
			return ParseIOError
		case IODone:
			if n == 0 {
				return ParsePeerClosed
			}
			c.inout = append(c.inout, tmp[:n]...)
			c.LastActive = time.Now()
		}

		// Gate 4: top-part parse (post-read), only if it was still
		// pending.
		if !c.parseStarted {
			if end, found := findBlankLine(c.inout, c.blankLineOff); found {
				cl, perr := parseTopPart(c.inout, end, &c.parse)
				c.parseStarted = true
				c.topPartOffset = end
				c.blankLineOff = -1

				if perr != nil {
					c.parseFailed = true
					c.Ready = true
					return ParseReady
				}
				c.contentLength = cl
			} else {
				c.blankLineOff = end
				return ParseParked
			}
		}

		if c.contentLength > 0 && len(c.inout)-c.topPartOffset < c.contentLength {
			return ParseParked
		}
	}

	if c.blankLineOff >= 0 {
		return ParseParked
	}

	// Gate 5: bottom-part parse. Binary Content-Types are sent by a
	// compliant client already base64-encoded, the same convention the
	// engine applies on the way out for a binary Response (see
	// Worker.encodeResponse) — the wire carries base64 text for binary
	// payloads in both directions, and the handler always sees raw bytes.
	if c.contentLength > 0 {
		body := c.inout[c.topPartOffset : c.topPartOffset+c.contentLength]
		c.parse.IsBase64Encoded = isBinaryContentType(c.parse.Headers.GetFold("Content-Type"))

		if c.parse.IsBase64Encoded {
			decoded, derr := base64.StdEncoding.DecodeString(string(body))
			if derr != nil {
				c.parseFailed = true
				c.Ready = true
				return ParseReady
			}
			c.parse.Body = decoded
		} else {
			c.parse.Body = append([]byte(nil), body...)
		}
	} else {
		c.parse.Body = nil
		c.parse.IsBase64Encoded = false
	}

	c.parse.RemoteAddr = c.Peer

	// Gate 6: readiness.
	c.Ready = true
	return ParseReady
}

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
	"errors"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// IOResult is the three-valued outcome of every I/O adapter call.
type IOResult int

const (
	// IODone means the requested operation made all the progress it could
	// right now: for reads, at least one byte or EOF; for writes, all
	// queued bytes flushed.
	IODone IOResult = iota
	// IOAgain means the socket would block; the caller parks the
	// connection and retries on the next readiness event.
	IOAgain
	// IOError means an unrecoverable I/O failure; the caller closes.
	IOError
)

// tlsPollWindow bounds how long a TLS Read/Write may block before the
// adapter reports AGAIN. crypto/tls has no WANT_READ/WANT_WRITE-style
// non-blocking API, so a short deadline plus a Timeout() check stands in
// for it, at the cost of a bounded poll latency on TLS connections.
const tlsPollWindow = 2 * time.Millisecond

// plaintextRead appends up to len(buf) freshly read bytes into buf,
// returning how many were read.
func plaintextRead(c *Connection, buf []byte) (IOResult, int, error) {
	n, err := unix.Read(c.FD, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return IOAgain, 0, nil
		}
		return IOError, 0, err
	}
	return IODone, n, nil
}

// plaintextWrite drains as much of buf as the socket accepts right now,
// returning how many bytes were written.
func plaintextWrite(c *Connection, buf []byte) (IOResult, int, error) {
	if len(buf) == 0 {
		return IODone, 0, nil
	}

	n, err := unix.Write(c.FD, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return IOAgain, 0, nil
		}
		return IOError, 0, err
	}
	return IODone, n, nil
}

// tlsRead reads decrypted bytes through the connection's TLS session.
func tlsRead(c *Connection, buf []byte) (IOResult, int, error) {
	_ = c.TLS.SetReadDeadline(time.Now().Add(tlsPollWindow))

	n, err := c.TLS.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return IOAgain, n, nil
		}
		if err == io.EOF {
			return IODone, n, nil
		}
		return IOError, n, err
	}
	return IODone, n, nil
}

// tlsWrite writes buf through the connection's TLS session.
func tlsWrite(c *Connection, buf []byte) (IOResult, int, error) {
	if len(buf) == 0 {
		return IODone, 0, nil
	}

	_ = c.TLS.SetWriteDeadline(time.Now().Add(tlsPollWindow))

	n, err := c.TLS.Write(buf)
	if err != nil {
		if isTimeout(err) {
			return IOAgain, n, nil
		}
		return IOError, n, err
	}
	return IODone, n, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// adapterRead dispatches to the plaintext or TLS read adapter depending on
// whether the connection has a TLS session attached.
func adapterRead(c *Connection, buf []byte) (IOResult, int, error) {
	if c.TLS != nil {
		return tlsRead(c, buf)
	}
	return plaintextRead(c, buf)
}

// adapterWrite dispatches to the plaintext or TLS write adapter.
func adapterWrite(c *Connection, buf []byte) (IOResult, int, error) {
	if c.TLS != nil {
		return tlsWrite(c, buf)
	}
	return plaintextWrite(c, buf)
}

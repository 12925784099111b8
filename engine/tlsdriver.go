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

import "time"

// driveHandshake advances the TLS accept handshake by one bounded attempt.
// It is idempotent: calling it once c.Handshaked is true is a no-op that
// returns IODone immediately. On success it flips to the recv step; on a
// timeout (standing in for WANT_READ/WANT_WRITE, since crypto/tls exposes
// no incremental accept API) it reports IOAgain so the worker re-parks the
// connection on the poller; any other error is an unrecoverable handshake
// failure the caller closes silently per the close-on-TLS-failure
// disposition.
func driveHandshake(c *Connection) (IOResult, error) {
	if c.Handshaked {
		return IODone, nil
	}

	if c.TLS == nil {
		return IOError, errHandshakeNoSession
	}

	_ = c.TLS.SetReadDeadline(time.Now().Add(tlsPollWindow))
	_ = c.TLS.SetWriteDeadline(time.Now().Add(tlsPollWindow))

	if err := c.TLS.Handshake(); err != nil {
		if isTimeout(err) {
			return IOAgain, nil
		}
		return IOError, err
	}

	_ = c.TLS.SetReadDeadline(time.Time{})
	_ = c.TLS.SetWriteDeadline(time.Time{})

	c.Handshaked = true
	c.Step = stepRecv
	return IODone, nil
}

var errHandshakeNoSession = handshakeError("connection has no TLS session to handshake")

type handshakeError string

func (e handshakeError) Error() string { return string(e) }

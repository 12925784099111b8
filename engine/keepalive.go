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
	"time"

	"github.com/nabbar/golib/poller"
)

// parkIdle moves a connection that just finished a response, and intends to
// stay open, off the active poller and onto the worker's keepalive
// readiness set. Using a separate notifier instead of leaving every
// between-request socket registered on the hot poller bounds how many fds
// that poller has to scan when a burst of new traffic arrives.
func (w *Worker) parkIdle(c *Connection) {
	_ = w.poll.Remove(c.FD)

	if err := w.idle.Add(c.FD, poller.EventRead); err != nil && w.cfg.Logger != nil {
		w.cfg.Logger().Debug("keepalive poller add failed", err)
	}
}

// handleKeepaliveWake moves a connection back onto the active poller and
// resumes it. ToDelete guards against a race where the connection was
// closed for an unrelated reason (e.g. drain) between the wake being
// queued and it being processed.
func (w *Worker) handleKeepaliveWake(c *Connection) {
	if c.ToDelete {
		return
	}

	_ = w.idle.Remove(c.FD)

	if err := w.poll.Add(c.FD, poller.EventRead); err != nil {
		w.closeConn(c, err)
		return
	}

	c.StartRead = time.Now()
	c.Step = stepRecv
	w.drive(c)
}

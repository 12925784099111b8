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

// admit is the engine's sole back-pressure mechanism: a per-worker
// connection cap checked once, at NEW_CONN time. There is no queue of
// pending admissions; a connection either joins the worker's list right now
// or is torn down immediately by the caller.
func (w *Worker) admit(c *Connection) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminating {
		return false
	}
	if w.numConns >= w.cfg.ThreadMaxConn {
		return false
	}

	w.conns[c.FD] = c
	w.numConns++
	return true
}

// handleTerminate begins or advances the drain phase of shutdown. The first
// call flips the terminating flag and arms a grace timer; if that timer
// fires before num_conns has reached zero naturally, it re-posts
// EventTerminate, and this second call force-closes whatever remains.
func (w *Worker) handleTerminate() {
	w.mu.Lock()
	already := w.terminating
	w.terminating = true
	w.mu.Unlock()

	if !already {
		grace := w.cfg.ShutdownGrace
		if grace <= 0 {
			grace = 15 * time.Second
		}
		time.AfterFunc(grace, func() {
			_ = w.Post(workEvent{tag: EventTerminate})
		})
		return
	}

	w.mu.Lock()
	remaining := make([]*Connection, 0, len(w.conns))
	for _, c := range w.conns {
		remaining = append(remaining, c)
	}
	w.mu.Unlock()

	for _, c := range remaining {
		w.closeConn(c, nil)
	}
}

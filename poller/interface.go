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

package poller

import "time"

// EventMask is a bitmask of readiness conditions reported for a registered
// file descriptor.
type EventMask uint32

const (
	EventRead EventMask = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// Event is one readiness notification returned from Wait. Fd identifies the
// registered file descriptor; the caller (the engine's worker event loop)
// keeps its own fd-to-Connection map since the kernel-level readiness APIs
// this package wraps only reliably round-trip a 32-bit identifier.
type Event struct {
	Fd     int
	Events EventMask
}

// Poller is the minimal readiness-multiplexer contract the engine's worker
// event loop drives. The engine calls Wait from a relay goroutine while the
// worker goroutine calls Add, Modify and Remove on the same Poller; the
// epoll, kqueue and mock backends keep no shared state beyond the kernel
// descriptor (the mock guards its map with a mutex). Each worker owns two
// Pollers, one for its active set and one for its idle set.
type Poller interface {
	// Add registers fd for the given event mask.
	Add(fd int, events EventMask) error

	// Modify changes the registered event mask for fd.
	Modify(fd int, events EventMask) error

	// Remove deregisters fd. It is not an error to remove an fd that was
	// already closed out from under the poller.
	Remove(fd int) error

	// Wait blocks up to timeout for at least one ready fd, appending
	// events into the caller-supplied slice's backing array (reusing its
	// capacity) and returning the populated slice. A timeout of zero
	// returns immediately with whatever is already ready; a negative
	// timeout blocks indefinitely.
	Wait(timeout time.Duration, events []Event) ([]Event, error)

	// Close releases the poller's own resources (e.g. the epoll/kqueue
	// file descriptor). It does not close any registered fd.
	Close() error
}

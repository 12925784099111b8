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

import (
	"sync"
	"time"
)

// Mock is a Poller backend driven entirely by test code: Push queues events
// to be returned from the next Wait call, letting a test inject an AGAIN
// pause (an empty Wait) between two reads of the same connection without
// touching a real socket.
type Mock struct {
	mu       sync.Mutex
	pending  []Event
	registry map[int]EventMask
	closed   bool
}

// NewMock returns a ready-to-use mock poller.
func NewMock() *Mock {
	return &Mock{registry: make(map[int]EventMask)}
}

func (m *Mock) Add(fd int, events EventMask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[fd] = events
	return nil
}

func (m *Mock) Modify(fd int, events EventMask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[fd] = events
	return nil
}

func (m *Mock) Remove(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, fd)
	return nil
}

// Push enqueues an event to be delivered on a subsequent Wait call,
// regardless of the timeout requested.
func (m *Mock) Push(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, ev)
}

func (m *Mock) Wait(_ time.Duration, events []Event) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events = events[:0]
	events = append(events, m.pending...)
	m.pending = nil

	return events, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Registered reports whether fd currently has an active registration,
// purely for test assertions.
func (m *Mock) Registered(fd int) (EventMask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.registry[fd]
	return ev, ok
}

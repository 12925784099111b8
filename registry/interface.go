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

package registry

import "time"

// Location pins a connection handle to the worker and slot holding its live
// state, plus a generation counter so a stale handle from a recycled slot
// is rejected rather than silently resolving to a different connection.
type Location struct {
	WorkerID   int
	Index      int
	Generation uint64
}

// Info is the read-only snapshot returned for the Info-connection command.
type Info struct {
	Handle     string
	Peer       string
	WorkerID   int
	TLS        bool
	OpenedAt   time.Time
	LastActive time.Time
	BytesIn    uint64
	BytesOut   uint64
	Requests   uint64
}

// Registry is a connection handle table. Registering a connection
// returns a fresh handle string; Resolve looks a handle back up to its
// Location; Unregister drops a handle when the connection closes.
type Registry interface {
	Register(loc Location, info Info) (handle string, err error)
	Resolve(handle string) (Location, bool)
	Lookup(handle string) (Info, bool)
	Touch(handle string, info Info) bool
	Unregister(handle string)
	Len() int
	Walk(fn func(handle string, info Info) bool)
}

// New returns a Registry backed by a mutex-protected map, generating
// handles with a UUID so they are unguessable and collision-free across
// process restarts.
func New() Registry {
	return newRegistry()
}

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

// Package engine implements the connection lifecycle: a pool of worker
// threads, each single-threaded cooperative inside, owning a set of
// connections pinned to it for life. A connection moves through TLS
// handshake (if any), incremental HTTP/1.x parsing, handler dispatch, and
// response write, suspending only at AGAIN from an I/O adapter, WANT_READ/
// WANT_WRITE from the TLS driver, or an empty event queue — never inside a
// blocking call.
//
// One file per responsibility, mirroring the breakdown the teacher uses for
// its own per-concern files: connection.go (record + invariants),
// ioadapter.go (AGAIN/DONE/ERROR read/write), tlsdriver.go (incremental
// handshake), parser.go (top/bottom part parsing), worker.go (event loop),
// accept.go (accept dispatcher), keepalive.go (idle wakeups), admission.go
// (connection cap and drain).
package engine

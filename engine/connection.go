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
	"crypto/tls"
	"time"

	"github.com/nabbar/golib/handler"
)

// step names the current state-machine position of a connection. It plays
// the role the spec assigns to a per-connection function pointer; dispatch
// happens through stepDriver's switch rather than an indirect call, which
// keeps the state transitions in one readable place.
type step int

const (
	stepHandshake step = iota
	stepRecv
	stepWrite
	stepDone
)

// Connection is the hottest record in the engine: one per accepted socket,
// pinned to exactly one worker for its entire life. No field here is ever
// touched by a goroutine other than the owning worker's run loop, except
// numConns bookkeeping on Worker itself which takes the worker mutex.
type Connection struct {
	FD       int
	TLS      *tls.Conn
	WorkerID int
	Handle   string

	Step step

	// inout accumulates raw bytes read from the socket and, once a
	// response is ready, pending bytes to write back.
	inout []byte
	// writeOffset marks how much of inout's tail (the response) has
	// already been flushed to the socket.
	writeOffset int

	// parse holds the request materialized so far.
	parse         handler.Request
	parseStarted  bool
	parseFailed   bool
	topPartOffset int
	blankLineOff  int
	contentLength int

	StartRead time.Time
	LastActive time.Time

	Ready      bool
	Handshaked bool
	InProgress bool
	ToDelete   bool
	Shutdown   bool
	KeepAlive  bool
	HasError   bool
	Compression bool

	Peer string

	requestCount uint64
}

// reset clears a Connection to its zero operational state so it can be
// reused from a free list without a fresh allocation, mirroring the
// teacher corpus's pool-friendly Reset methods.
func (c *Connection) reset() {
	c.FD = -1
	c.TLS = nil
	c.WorkerID = -1
	c.Handle = ""
	c.Step = stepHandshake
	c.inout = c.inout[:0]
	c.writeOffset = 0
	c.parse = handler.Request{}
	c.parseStarted = false
	c.parseFailed = false
	c.topPartOffset = 0
	c.blankLineOff = 0
	c.contentLength = 0
	c.StartRead = time.Time{}
	c.LastActive = time.Time{}
	c.Ready = false
	c.Handshaked = false
	c.InProgress = false
	c.ToDelete = false
	c.Shutdown = false
	c.KeepAlive = false
	c.HasError = false
	c.Compression = false
	c.Peer = ""
	c.requestCount = 0
}

// newConnection allocates a fresh Connection bound to fd, owned by worker
// workerID. useTLS selects the initial step: handshake for HTTPS listeners,
// straight to recv for plaintext ones.
func newConnection(fd int, workerID int, peer string, useTLS bool) *Connection {
	c := &Connection{
		FD:         fd,
		WorkerID:   workerID,
		Peer:       peer,
		StartRead:  time.Now(),
		LastActive: time.Now(),
		KeepAlive:  true,
		blankLineOff: 0,
	}

	if useTLS {
		c.Step = stepHandshake
	} else {
		c.Step = stepRecv
		c.Handshaked = true
	}

	return c
}

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
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/golib/handler"
	"github.com/nabbar/golib/poller"
)

// Worker owns one readiness poller, one keepalive poller, and the set of
// connections currently assigned to it. Every Connection field except the
// bookkeeping held directly on Worker is touched by this goroutine alone;
// other goroutines (the accept dispatcher, the two pollLoop relays) only
// ever hand it events through queue.
type Worker struct {
	id  int
	cfg Config

	poll poller.Poller
	idle poller.Poller

	queue chan workEvent
	done  chan struct{}

	mu       sync.Mutex
	conns    map[int]*Connection
	numConns int

	terminating     bool
	requestsSinceGC uint64
}

func newWorker(id int, cfg Config) (*Worker, error) {
	active, err := poller.New()
	if err != nil {
		return nil, ErrorPollerCreate.Error(err)
	}

	idle, err := poller.New()
	if err != nil {
		_ = active.Close()
		return nil, ErrorPollerCreate.Error(err)
	}

	return &Worker{
		id:    id,
		cfg:   cfg,
		poll:  active,
		idle:  idle,
		queue: make(chan workEvent, cfg.ThreadMaxConn+16),
		done:  make(chan struct{}),
		conns: make(map[int]*Connection, cfg.ThreadMaxConn),
	}, nil
}

// Post enqueues ev without blocking. A full queue means the worker is
// already saturated beyond ThreadMaxConn's admission bound, which should
// not happen in practice since admission is checked before any RESUME is
// produced; it is still reported rather than silently dropped.
func (w *Worker) Post(ev workEvent) error {
	select {
	case w.queue <- ev:
		return nil
	default:
		return ErrorWorkerQueueFull.Error(nil)
	}
}

func (w *Worker) numConnections() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.numConns
}

// start launches the worker's event loop and its two poller relay
// goroutines. It returns immediately.
func (w *Worker) start(ctx context.Context) {
	go w.pollLoop(w.poll, EventResume)
	go w.pollLoop(w.idle, EventKeepaliveWake)
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.handleTerminate()
			return
		case ev := <-w.queue:
			w.dispatchEvent(ev)

			if w.terminating && w.numConnections() == 0 {
				return
			}
		}
	}
}

// pollLoop relays readiness events from p into the worker's own queue,
// tagged so dispatchEvent knows which readiness set fired. It is the only
// other goroutine allowed to read the conns map, and only under w.mu.
func (w *Worker) pollLoop(p poller.Poller, tag EventTag) {
	buf := make([]poller.Event, 64)

	for {
		select {
		case <-w.done:
			return
		default:
		}

		evs, err := p.Wait(100*time.Millisecond, buf)
		if err != nil {
			continue
		}

		for _, e := range evs {
			w.mu.Lock()
			c := w.conns[e.Fd]
			w.mu.Unlock()

			if c == nil {
				continue
			}

			_ = w.Post(workEvent{tag: tag, conn: c})
		}
	}
}

func (w *Worker) dispatchEvent(ev workEvent) {
	switch ev.tag {
	case EventNewConn:
		w.handleNewConn(ev.conn)
	case EventResume:
		w.drive(ev.conn)
	case EventKeepaliveWake:
		w.handleKeepaliveWake(ev.conn)
	case EventTerminate:
		w.handleTerminate()
	}
}

func (w *Worker) handleNewConn(c *Connection) {
	if !w.admit(c) {
		if c.TLS != nil {
			_ = c.TLS.Close()
		} else {
			_ = unix.Shutdown(c.FD, unix.SHUT_RDWR)
			_ = unix.Close(c.FD)
		}
		if w.cfg.Registry != nil {
			w.cfg.Registry.Unregister(c.Handle)
		}
		if w.cfg.Logger != nil {
			w.cfg.Logger().Warning("connection rejected, worker at capacity", nil)
		}
		w.cfg.metrics().ConnRejected(w.id)
		return
	}

	w.cfg.metrics().ConnAccepted(w.id)

	if err := w.poll.Add(c.FD, poller.EventRead); err != nil {
		w.closeConn(c, err)
		return
	}

	w.drive(c)
}

// drive advances c through as many steps as can complete without blocking,
// parking it on the appropriate poller the moment an adapter reports AGAIN.
func (w *Worker) drive(c *Connection) {
	if c.Step == stepHandshake {
		res, err := driveHandshake(c)
		switch res {
		case IOAgain:
			w.park(c, poller.EventRead|poller.EventWrite)
			return
		case IOError:
			w.closeConn(c, err)
			return
		}
	}

	if c.Step == stepRecv {
		if !c.Ready {
			outcome := driveParser(c, w.cfg.ReadTimeout)
			switch outcome {
			case ParseParked:
				w.park(c, poller.EventRead)
				return
			case ParsePeerClosed:
				w.closeConn(c, nil)
				return
			case ParseIOError:
				w.closeConn(c, errConnIOError)
				return
			}
		}

		if c.Ready && !c.InProgress {
			c.InProgress = true
			w.dispatchRequest(c)
		}
		return
	}

	if c.Step == stepWrite {
		w.flush(c)
	}
}

// dispatchRequest runs the embedder's Executor around the materialized
// request, per the save-state/invoke/restore-state bracket the handler
// contract specifies, and always produces a response (synthesizing a 400
// itself when the parser never reached a well-formed request).
func (w *Worker) dispatchRequest(c *Connection) {
	start := time.Now()
	ctx := newConnContext(context.Background(), c.Handle, w.cfg.ServerHandle)

	if c.parseFailed {
		w.cfg.metrics().ParseError(w.id)
	}

	var state interface{}
	if w.cfg.Executor != nil {
		state, _ = w.cfg.Executor.SaveState(ctx)
	}

	resp := w.invoke(ctx, c)

	if w.cfg.Executor != nil {
		if rerr := w.cfg.Executor.RestoreState(ctx, state); rerr != nil && w.cfg.Logger != nil {
			w.cfg.Logger().Warning("executor state restore failed", rerr)
		}
	}

	c.requestCount++
	w.encodeResponse(c, resp)
	w.cfg.metrics().RequestServed(w.id, resp.StatusCode, time.Since(start))
	c.Step = stepWrite
	w.flush(c)
}

func (w *Worker) invoke(ctx handler.Context, c *Connection) handler.Response {
	if c.parseFailed {
		return handler.NewResponse(http.StatusBadRequest, []byte("Bad Request"))
	}

	if w.cfg.Executor == nil {
		return handler.NewResponse(http.StatusNotImplemented, []byte("Not Implemented"))
	}

	view, err := w.cfg.Executor.CreateRequestView(c.parse)
	if err != nil {
		if resp, ok := handler.AsShortCircuit(err); ok {
			return resp
		}
		return handler.NewResponse(http.StatusBadRequest, []byte("Bad Request"))
	}

	resp, err := w.invokeSafely(ctx, view)
	if err != nil {
		if sc, ok := handler.AsShortCircuit(err); ok {
			return sc
		}
		if w.cfg.Logger != nil {
			w.cfg.Logger().Error("handler invocation failed", err)
		}
		return handler.NewResponse(http.StatusInternalServerError, []byte("Internal Server Error"))
	}

	return resp
}

// invokeSafely recovers a panicking Executor.Invoke into a 500, mirroring
// the corpus's habit of never letting one misbehaving handler take a worker
// thread down with it.
func (w *Worker) invokeSafely(ctx handler.Context, view interface{}) (resp handler.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			if w.cfg.Logger != nil {
				w.cfg.Logger().Error("handler panic recovered", fmt.Errorf("%v", r))
			}
			resp = handler.NewResponse(http.StatusInternalServerError, []byte("Internal Server Error"))
			err = nil
		}
	}()
	return w.cfg.Executor.Invoke(ctx, view)
}

func (w *Worker) encodeResponse(c *Connection, resp handler.Response) {
	keep := c.parse.Proto != "HTTP/1.0"
	if strings.EqualFold(c.parse.Headers.GetFold("Connection"), "close") {
		keep = false
	}
	if resp.KeepAlive != nil {
		keep = *resp.KeepAlive
	}
	if c.parseFailed {
		keep = false
	}
	c.KeepAlive = keep

	body := resp.Body
	if resp.IsBase64Encoded {
		body = []byte(base64.StdEncoding.EncodeToString(resp.Body))
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))

	if resp.Headers.Get("Content-Length") == "" {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	}
	if resp.Headers.Get("Connection") == "" {
		if keep {
			b.WriteString("Connection: keep-alive\r\n")
		} else {
			b.WriteString("Connection: close\r\n")
		}
	}
	for name, values := range resp.Headers {
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	b.WriteString("\r\n")
	b.Write(body)

	c.inout = append(c.inout[:0], b.Bytes()...)
	c.writeOffset = 0
}

func (w *Worker) flush(c *Connection) {
	for c.writeOffset < len(c.inout) {
		res, n, err := adapterWrite(c, c.inout[c.writeOffset:])

		switch res {
		case IOAgain:
			w.park(c, poller.EventWrite)
			return
		case IOError:
			w.closeConn(c, err)
			return
		case IODone:
			if n == 0 {
				w.park(c, poller.EventWrite)
				return
			}
			c.writeOffset += n
		}
	}

	w.finishRequest(c)
}

func (w *Worker) finishRequest(c *Connection) {
	if w.cfg.GCThreshold > 0 {
		w.requestsSinceGC++
		if w.requestsSinceGC >= w.cfg.GCThreshold {
			runtime.GC()
			w.requestsSinceGC = 0
		}
	}

	if w.cfg.Registry != nil {
		if info, ok := w.cfg.Registry.Lookup(c.Handle); ok {
			info.LastActive = time.Now()
			info.Requests = c.requestCount
			w.cfg.Registry.Touch(c.Handle, info)
		}
	}

	if !c.KeepAlive || c.Shutdown || c.ToDelete {
		w.closeConn(c, nil)
		return
	}

	c.inout = c.inout[:0]
	c.writeOffset = 0
	c.parse = handler.Request{}
	c.parseStarted = false
	c.parseFailed = false
	c.topPartOffset = 0
	c.blankLineOff = 0
	c.contentLength = 0
	c.Ready = false
	c.InProgress = false
	c.Step = stepRecv
	c.StartRead = time.Now()

	w.parkIdle(c)
}

// park modifies c's registration on the active poller to wait for mask,
// used whenever an adapter reports AGAIN mid-request.
func (w *Worker) park(c *Connection, mask poller.EventMask) {
	if err := w.poll.Modify(c.FD, mask); err != nil && w.cfg.Logger != nil {
		w.cfg.Logger().Debug("active poller modify failed", err)
	}
}

func (w *Worker) closeConn(c *Connection, err error) {
	c.ToDelete = true

	_ = w.poll.Remove(c.FD)
	_ = w.idle.Remove(c.FD)

	if c.TLS != nil {
		// Closing the TLS session closes its underlying net.Conn, which
		// owns this connection's only live file descriptor.
		_ = c.TLS.Close()
	} else {
		_ = unix.Close(c.FD)
	}

	w.mu.Lock()
	delete(w.conns, c.FD)
	w.numConns--
	w.mu.Unlock()

	if w.cfg.Registry != nil {
		w.cfg.Registry.Unregister(c.Handle)
	}

	if err != nil && w.cfg.Logger != nil {
		w.cfg.Logger().Debug("connection closed", err)
	}

	w.cfg.metrics().ConnClosed(w.id)
}

var errConnIOError = connError("connection read adapter reported an unrecoverable error")

type connError string

func (e connError) Error() string { return string(e) }

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
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/golib/poller"
	"github.com/nabbar/golib/registry"
	"github.com/nabbar/golib/socket"
)

// boundListener pairs a listening socket with the TLS configuration (nil
// for a plaintext listener) its accepted connections should use.
type boundListener struct {
	ln  *socket.Listener
	tls *tls.Config
}

// acceptLoop owns bl for the engine's lifetime: it waits for the listening
// socket to become readable, drains every pending connection with
// accept4(2) until EAGAIN, and hands each one to a worker chosen by
// client_fd mod num_threads. Registry registration happens before the
// NEW_CONN event is posted, so a handle is always resolvable the instant a
// connection becomes visible to an embedder.
func (e *Engine) acceptLoop(bl *boundListener) {
	defer e.wg.Done()

	p, err := poller.New()
	if err != nil {
		if e.cfg.Logger != nil {
			e.cfg.Logger().Error("accept poller create failed", err)
		}
		return
	}
	defer func() { _ = p.Close() }()

	if err = p.Add(bl.ln.FD, poller.EventRead); err != nil {
		if e.cfg.Logger != nil {
			e.cfg.Logger().Error("accept poller register failed", err)
		}
		return
	}

	buf := make([]poller.Event, 8)

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		if _, werr := p.Wait(200*time.Millisecond, buf); werr != nil {
			continue
		}

		e.drainAccept(bl)
	}
}

func (e *Engine) drainAccept(bl *boundListener) {
	for {
		fd, peer, ok, err := bl.ln.Accept()
		if err != nil {
			if e.cfg.Logger != nil {
				e.cfg.Logger().Warning("accept failed", err)
			}
			return
		}
		if !ok {
			return
		}

		widx := fd % len(e.workers)
		w := e.workers[widx]

		useTLS := bl.tls != nil
		c := newConnection(fd, widx, peer, useTLS)

		if useTLS {
			netConn, realFD, nerr := fdToNetConn(fd)
			if nerr != nil {
				_ = unixCloseQuiet(fd)
				continue
			}
			c.TLS = tls.Server(netConn, bl.tls)
			c.FD = realFD
		}

		gen := atomic.AddUint64(&e.generation, 1)

		handle, rerr := e.cfg.Registry.Register(
			registry.Location{WorkerID: widx, Index: fd, Generation: gen},
			registry.Info{Peer: peer, WorkerID: widx, TLS: useTLS, OpenedAt: time.Now(), LastActive: time.Now()},
		)
		if rerr != nil {
			if c.TLS != nil {
				_ = c.TLS.Close()
			} else {
				_ = unixCloseQuiet(fd)
			}
			continue
		}
		c.Handle = handle

		if perr := w.Post(workEvent{tag: EventNewConn, conn: c}); perr != nil {
			e.cfg.Registry.Unregister(handle)
			if c.TLS != nil {
				_ = c.TLS.Close()
			} else {
				_ = unixCloseQuiet(fd)
			}
		}
	}
}

// fdToNetConn wraps a raw, already non-blocking socket fd as a net.Conn so
// crypto/tls.Server can drive it. os.NewFile hands the fd to the Go
// runtime's integrated network poller; net.FileConn dup's it and the
// original is closed immediately after, so the returned conn's own fd
// (recovered via SyscallConn, with no further duplication) is the only
// descriptor left alive for this connection. The caller re-homes
// Connection.FD onto it: the poller registers that fd, and closing the TLS
// session is thereafter the only way the fd gets closed.
func fdToNetConn(fd int) (net.Conn, int, error) {
	f := os.NewFile(uintptr(fd), "conn")
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, -1, err
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		_ = conn.Close()
		return nil, -1, errUnsupportedConn
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, -1, err
	}

	var realFD int
	cerr := raw.Control(func(p uintptr) { realFD = int(p) })
	if cerr != nil {
		_ = conn.Close()
		return nil, -1, cerr
	}

	return conn, realFD, nil
}

var errUnsupportedConn = connError("accepted connection does not expose a raw file descriptor")

func unixCloseQuiet(fd int) error {
	return unix.Close(fd)
}

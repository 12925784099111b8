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

package socket

import (
	"golang.org/x/sys/unix"
)

// Listener wraps the raw file descriptor of a bound, listening, non-blocking
// dual-stack socket. It is handed to the poller package for readiness
// registration; accept(2) calls are issued directly against FD by the
// engine's accept dispatcher.
type Listener struct {
	FD   int
	Addr string
	cfg  ListenConfig
}

// Close releases the underlying file descriptor. Safe to call once.
func (l *Listener) Close() error {
	if l == nil || l.FD < 0 {
		return nil
	}

	fd := l.FD
	l.FD = -1
	return unix.Close(fd)
}

// Listen builds a bound, listening, non-blocking, close-on-exec socket per
// cfg and returns a Listener wrapping its file descriptor. The socket is
// always opened AF_INET6 with IPV6_V6ONLY disabled so a single bind serves
// both IPv4 (as v4-mapped addresses) and IPv6 peers. An empty or wildcard
// host binds every address; any other host must be a literal IP, and an
// IPv4 literal is bound as its v4-mapped form. Host names are not resolved.
func Listen(cfg ListenConfig) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, ErrorParamsInvalid.Error(err)
	}

	host, port, err := splitHostPort(cfg.Address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, ErrorSocketCreate.Error(err)
	}

	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	if err = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
		return nil, ErrorSocketOption.Error(err)
	}

	if cfg.ReuseAddr {
		if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return nil, ErrorSocketOption.Error(err)
		}
	}

	if cfg.ReusePort {
		if err = setReusePort(fd); err != nil {
			return nil, ErrorSocketOption.Error(err)
		}
	}

	if err = applyKeepAlive(fd, cfg.KeepAlive); err != nil {
		return nil, err
	}

	sa, err := sockaddrFromHost(host, port)
	if err != nil {
		return nil, err
	}

	if err = unix.Bind(fd, sa); err != nil {
		return nil, ErrorSocketBind.Error(err)
	}

	if err = unix.SetNonblock(fd, true); err != nil {
		return nil, ErrorSocketNonBlock.Error(err)
	}

	if err = unix.Listen(fd, cfg.Backlog); err != nil {
		return nil, ErrorSocketListen.Error(err)
	}

	ok = true
	return &Listener{FD: fd, Addr: cfg.Address, cfg: cfg}, nil
}

// Accept issues a single non-blocking accept4(2) call against the listening
// socket. It returns (connFD, peerAddr, nil) on success, or a nil error with
// connFD == -1 and ok == false when the kernel has no pending connection
// (EAGAIN/EWOULDBLOCK) — the caller (the engine's accept dispatcher) treats
// that as the AGAIN outcome and returns control to the poller.
func (l *Listener) Accept() (connFD int, peer string, ok bool, err error) {
	nfd, sa, aerr := unix.Accept4(l.FD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if aerr != nil {
		if aerr == unix.EAGAIN || aerr == unix.EWOULDBLOCK {
			return -1, "", false, nil
		}
		return -1, "", false, aerr
	}

	_ = applyKeepAlive(nfd, l.cfg.KeepAlive)
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	return nfd, PeerAddr(sa), true, nil
}

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

//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package socket

import (
	"golang.org/x/sys/unix"
)

// darwin and the BSDs expose the idle-probe delay as TCP_KEEPALIVE rather
// than Linux's TCP_KEEPIDLE; the interval/count knobs keep their names.
const sockoptTCPKeepAlive = 0x10

// applyKeepAlive tunes TCP keepalive probing on a BSD-family socket.
func applyKeepAlive(fd int, cfg KeepAliveConfig) error {
	if !cfg.Enable {
		return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 0)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return ErrorSocketOption.Error(err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, sockoptTCPKeepAlive, int(cfg.Idle.Seconds())); err != nil {
		return ErrorSocketOption.Error(err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(cfg.Interval.Seconds())); err != nil {
		return ErrorSocketOption.Error(err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, cfg.Count); err != nil {
		return ErrorSocketOption.Error(err)
	}

	return nil
}

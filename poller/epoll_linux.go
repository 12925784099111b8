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

//go:build linux

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	fd int
}

// New builds the platform readiness multiplexer: epoll on Linux.
func New() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, ErrorPollerCreate.Error(err)
	}
	return &epollPoller{fd: fd}, nil
}

func toEpollEvents(m EventMask) uint32 {
	var e uint32

	if m&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if m&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}

	// Edge-triggered: the worker loop must read/write until AGAIN, the
	// poller will not re-signal a still-ready fd on its own.
	e |= unix.EPOLLET

	return e
}

func fromEpollEvents(e uint32) EventMask {
	var m EventMask

	if e&unix.EPOLLIN != 0 {
		m |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		m |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		m |= EventError
	}
	if e&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		m |= EventHangup
	}

	return m
}

func (p *epollPoller) Add(fd int, events EventMask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}

	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return ErrorPollerRegister.Error(err)
	}
	return nil
}

func (p *epollPoller) Modify(fd int, events EventMask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}

	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return ErrorPollerModify.Error(err)
	}
	return nil
}

func (p *epollPoller) Remove(fd int) error {
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		if err == unix.ENOENT || err == unix.EBADF {
			return nil
		}
		return ErrorPollerRemove.Error(err)
	}
	return nil
}

func (p *epollPoller) Wait(timeout time.Duration, events []Event) ([]Event, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}

	raw := make([]unix.EpollEvent, 128)
	n, err := unix.EpollWait(p.fd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return events[:0], nil
		}
		return events[:0], ErrorPollerWait.Error(err)
	}

	events = events[:0]
	for i := 0; i < n; i++ {
		events = append(events, Event{
			Fd:     int(raw[i].Fd),
			Events: fromEpollEvents(raw[i].Events),
		})
	}

	return events, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.fd)
}

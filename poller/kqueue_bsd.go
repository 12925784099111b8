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

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

type kqueuePoller struct {
	fd int
}

// New builds the platform readiness multiplexer: kqueue on darwin/BSD.
func New() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, ErrorPollerCreate.Error(err)
	}
	return &kqueuePoller{fd: fd}, nil
}

func (p *kqueuePoller) register(fd int, events EventMask, flags uint16) error {
	var changes []unix.Kevent_t

	if events&EventRead != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags,
		})
	}
	if events&EventWrite != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags,
		})
	}

	if len(changes) == 0 {
		return nil
	}

	_, err := unix.Kevent(p.fd, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Add(fd int, events EventMask) error {
	if err := p.register(fd, events, unix.EV_ADD|unix.EV_CLEAR); err != nil {
		return ErrorPollerRegister.Error(err)
	}
	return nil
}

func (p *kqueuePoller) Modify(fd int, events EventMask) error {
	// kqueue has no direct "replace interest set" verb; drop both filters
	// then re-add whichever are requested.
	_ = p.register(fd, EventRead|EventWrite, unix.EV_DELETE)

	if err := p.register(fd, events, unix.EV_ADD|unix.EV_CLEAR); err != nil {
		return ErrorPollerModify.Error(err)
	}
	return nil
}

func (p *kqueuePoller) Remove(fd int) error {
	if err := p.register(fd, EventRead|EventWrite, unix.EV_DELETE); err != nil {
		if err == unix.ENOENT || err == unix.EBADF {
			return nil
		}
		return ErrorPollerRemove.Error(err)
	}
	return nil
}

func (p *kqueuePoller) Wait(timeout time.Duration, events []Event) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	raw := make([]unix.Kevent_t, 128)
	n, err := unix.Kevent(p.fd, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return events[:0], nil
		}
		return events[:0], ErrorPollerWait.Error(err)
	}

	events = events[:0]
	for i := 0; i < n; i++ {
		var m EventMask

		switch raw[i].Filter {
		case unix.EVFILT_READ:
			m |= EventRead
		case unix.EVFILT_WRITE:
			m |= EventWrite
		}

		if raw[i].Flags&unix.EV_EOF != 0 {
			m |= EventHangup
		}
		if raw[i].Flags&unix.EV_ERROR != 0 {
			m |= EventError
		}

		events = append(events, Event{Fd: int(raw[i].Ident), Events: m})
	}

	return events, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.fd)
}

/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop

import (
	"context"
	"time"
)

// FuncRun is the shape of both the start and the stop function handed to
// New. A start function is expected to block until its context is
// cancelled; a stop function runs once to release whatever the start
// function acquired.
type FuncRun func(ctx context.Context) error

// StartStop supervises a single start/stop function pair. Start launches
// the start function in its own goroutine and returns immediately without
// waiting on it; Stop cancels that goroutine and runs the stop function.
// Both are safe to call concurrently and are idempotent: a Start while
// already running restarts cleanly, a Stop while already stopped is a
// no-op.
type StartStop interface {
	// Start runs the start function asynchronously. It always returns nil;
	// failures from the start function itself surface through ErrorsLast.
	Start(ctx context.Context) error

	// Stop cancels the running start function and runs the stop function.
	// It always returns nil; failures surface through ErrorsLast.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error

	// IsRunning reports whether the start function is currently active.
	IsRunning() bool

	// Uptime is the time elapsed since the current Start, or zero if not
	// running.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error recorded during the current
	// run cycle, or nil.
	ErrorsLast() error

	// ErrorsList returns every error recorded during the current run cycle.
	ErrorsList() []error
}

// New builds a StartStop around the given start/stop functions. Either may
// be nil: calling Start/Stop against a nil function records an error
// instead of panicking.
func New(start, stop FuncRun) StartStop {
	return &runner{
		fnStart: start,
		fnStop:  stop,
	}
}

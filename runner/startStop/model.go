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
	"errors"
	"sync"
	"time"
)

var (
	errInvalidStartFunc = errors.New("invalid start function")
	errInvalidStopFunc  = errors.New("invalid stop function")
)

type runner struct {
	mu sync.Mutex

	fnStart FuncRun
	fnStop  FuncRun

	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	errs []error
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	wasRunning := r.running
	prevCancel := r.cancel
	prevDone := r.done
	r.mu.Unlock()

	if wasRunning {
		if prevCancel != nil {
			prevCancel()
		}
		if prevDone != nil {
			<-prevDone
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.errs = nil
	r.cancel = cancel
	r.done = done
	r.running = true
	r.startedAt = time.Now()
	start := r.fnStart
	r.mu.Unlock()

	go r.runStart(runCtx, start, done)

	return nil
}

// runStart executes the start function to completion (blocking until its
// context is cancelled, or returning early on its own) and folds the
// runner back to the stopped state once it does.
func (r *runner) runStart(ctx context.Context, fn FuncRun, done chan struct{}) {
	defer close(done)

	var err error
	if fn == nil {
		err = errInvalidStartFunc
	} else {
		err = fn(ctx)
	}

	r.mu.Lock()
	if err != nil {
		r.errs = append(r.errs, err)
	}
	r.running = false
	r.startedAt = time.Time{}
	r.mu.Unlock()
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}

	cancel := r.cancel
	done := r.done
	stop := r.fnStop
	r.running = false
	r.startedAt = time.Time{}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	var err error
	if stop == nil {
		err = errInvalidStopFunc
	} else {
		err = stop(ctx)
	}

	if err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

func (r *runner) ErrorsLast() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

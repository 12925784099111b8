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
	"context"
	"crypto/tls"
	"sync"

	"github.com/nabbar/golib/socket"
)

// Engine is the top-level connection server core: a fixed pool of workers,
// each with its own poller and connection set, fed by one accept
// dispatcher goroutine per registered listener.
type Engine struct {
	cfg     Config
	workers []*Worker

	mu         sync.Mutex
	running    bool
	listeners  []*boundListener
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the worker pool per cfg but starts nothing; call AddListener
// for every socket the engine should accept on, then Start.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, ErrorParamsInvalid.Error(err)
	}

	e := &Engine{cfg: cfg}

	for i := 0; i < cfg.NumThreads; i++ {
		w, err := newWorker(i, cfg)
		if err != nil {
			return nil, err
		}
		e.workers = append(e.workers, w)
	}

	return e, nil
}

// AddListener registers ln for acceptance once Start runs. tlsCfg is nil
// for a plaintext listener.
func (e *Engine) AddListener(ln *socket.Listener, tlsCfg *tls.Config) {
	e.listeners = append(e.listeners, &boundListener{ln: ln, tls: tlsCfg})
}

// Start launches every worker's event loop and one accept dispatcher
// goroutine per registered listener. It returns once all goroutines have
// been spawned; it does not block for the engine's lifetime.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrorAlreadyRunning.Error(nil)
	}
	e.running = true
	e.mu.Unlock()

	e.ctx, e.cancel = context.WithCancel(ctx)

	for _, w := range e.workers {
		w.start(e.ctx)
	}

	for _, bl := range e.listeners {
		e.wg.Add(1)
		go e.acceptLoop(bl)
	}

	return nil
}

// Shutdown cancels the accept dispatchers, posts TERMINATE to every
// worker, and waits for the drain phase (bounded by Config.ShutdownGrace
// per worker) to finish or for ctx to expire, whichever comes first.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrorNotRunning.Error(nil)
	}
	e.running = false
	e.mu.Unlock()

	e.cancel()

	for _, w := range e.workers {
		_ = w.Post(workEvent{tag: EventTerminate})
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		for _, w := range e.workers {
			<-w.done
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveConnections sums the connection count across every worker.
func (e *Engine) ActiveConnections() int {
	total := 0
	for _, w := range e.workers {
		total += w.numConnections()
	}
	return total
}

// NumWorkers reports how many worker threads the engine was configured
// with.
func (e *Engine) NumWorkers() int {
	return len(e.workers)
}

/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package server

import (
	"context"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"sync"
	"syscall"
)

// FieldType selects which Info field List/Filter match or return against.
type FieldType uint8

const (
	FieldName FieldType = iota
	FieldBind
	FieldExpose
)

type MapUpdPoolServer func(srv Server) Server
type MapRunPoolServer func(srv Server)

type pool []Server

// PoolServer groups several Server instances under one bind-address-keyed
// table, for embedders exposing more than one endpoint (plain + TLS,
// public + admin) from a single process.
type PoolServer interface {
	// Add inserts or replaces servers, keyed by GetBindable(). Returns
	// ErrorPoolAdd if any of the given servers is nil.
	Add(srv ...Server) (PoolServer, error)

	Get(bindAddress string) Server
	Del(bindAddress string) PoolServer
	Has(bindAddress string) bool
	Len() int

	MapRun(f MapRunPoolServer)
	MapUpd(f MapUpdPoolServer)

	List(fieldFilter, fieldReturn FieldType, pattern, regex string) []string
	Filter(field FieldType, pattern, regex string) PoolServer

	// IsRunning reports pool-wide liveness: with atLeast false, every
	// server must be running; with atLeast true, one is enough.
	IsRunning(atLeast bool) bool

	// WaitNotify blocks until SIGINT/SIGTERM/SIGQUIT or ctx is done, then
	// shuts the pool down and, if cancel is non-nil, calls it.
	WaitNotify(ctx context.Context, cancel context.CancelFunc)

	// Start starts every server concurrently, returning the first error
	// encountered, if any, after all have been attempted.
	Start(ctx context.Context) error
	Restart(ctx context.Context)
	Shutdown(ctx context.Context)
}

func NewPool(srv ...Server) PoolServer {
	p, _ := make(pool, 0).Add(srv...)
	return p
}

func (p pool) MapRun(f MapRunPoolServer) {
	if p == nil {
		return
	}
	for _, s := range p {
		f(s)
	}
}

func (p pool) MapUpd(f MapUpdPoolServer) {
	if p == nil {
		return
	}
	for i, s := range p {
		p[i] = f(s)
	}
}

func (p pool) Add(srv ...Server) (PoolServer, error) {
	r := make(pool, 0, len(p)+len(srv))
	r = append(r, p...)

	for _, s := range srv {
		if s == nil {
			return r, ErrorPoolAdd.Error(nil)
		}

		if r.Has(s.GetBindable()) {
			r = r.Del(s.GetBindable()).(pool)
		}

		r = append(r, s)
	}

	return r, nil
}

func (p pool) Get(bindAddress string) Server {
	for _, s := range p {
		if s.GetBindable() == bindAddress {
			return s
		}
	}
	return nil
}

func (p pool) Del(bindAddress string) PoolServer {
	if !p.Has(bindAddress) {
		return p
	}

	r := make(pool, 0, len(p))
	for _, s := range p {
		if s.GetBindable() == bindAddress {
			continue
		}
		r = append(r, s)
	}

	return r
}

func (p pool) Has(bindAddress string) bool {
	return p.Get(bindAddress) != nil
}

func (p pool) Len() int {
	return len(p)
}

func (p pool) fieldOf(s Server, field FieldType) string {
	switch field {
	case FieldBind:
		return s.GetBindable()
	case FieldExpose:
		return s.GetExpose()
	default:
		return s.GetName()
	}
}

func (p pool) List(fieldFilter, fieldReturn FieldType, pattern, regex string) []string {
	r := make([]string, 0)
	pattern = strings.ToLower(pattern)

	p.MapRun(func(srv Server) {
		f := strings.ToLower(p.fieldOf(srv, fieldFilter))

		if pattern != "" && strings.Contains(f, pattern) {
			r = append(r, p.fieldOf(srv, fieldReturn))
			return
		}

		if regex == "" {
			return
		}

		if ok, err := regexp.MatchString(regex, f); err == nil && ok {
			r = append(r, p.fieldOf(srv, fieldReturn))
		}
	})

	return r
}

func (p pool) Filter(field FieldType, pattern, regex string) PoolServer {
	r := make(pool, 0)
	pattern = strings.ToLower(pattern)

	p.MapRun(func(srv Server) {
		f := strings.ToLower(p.fieldOf(srv, field))

		if pattern != "" && strings.Contains(f, pattern) {
			r = append(r, srv)
			return
		}

		if regex == "" {
			return
		}

		if ok, err := regexp.MatchString(regex, f); err == nil && ok {
			r = append(r, srv)
		}
	})

	return r
}

func (p pool) IsRunning(atLeast bool) bool {
	if p.Len() < 1 {
		return false
	}

	running := false

	for _, s := range p {
		if s.IsRunning() {
			running = true
			continue
		}
		if !atLeast {
			return false
		}
	}

	return running
}

func (p pool) WaitNotify(ctx context.Context, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	p.Shutdown(context.Background())

	if cancel != nil {
		cancel()
	}
}

func (p pool) runMapCommand(f func(ctx context.Context, srv Server), ctx context.Context) {
	if p.Len() < 1 {
		return
	}

	var wg sync.WaitGroup

	for _, s := range p {
		wg.Add(1)
		go func(srv Server) {
			defer wg.Done()
			f(ctx, srv)
		}(s)
	}

	wg.Wait()
}

func (p pool) Start(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	p.runMapCommand(func(ctx context.Context, srv Server) {
		if e := srv.Start(ctx); e != nil {
			mu.Lock()
			errs = append(errs, e)
			mu.Unlock()
		}
	}, ctx)

	if len(errs) > 0 {
		return ErrorPoolListen.Error(errs[0])
	}

	return nil
}

func (p pool) Restart(ctx context.Context) {
	p.runMapCommand(func(ctx context.Context, srv Server) {
		_ = srv.Restart(ctx)
	}, ctx)
}

func (p pool) Shutdown(ctx context.Context) {
	p.runMapCommand(func(ctx context.Context, srv Server) {
		_ = srv.Stop(ctx)
	}, ctx)
}

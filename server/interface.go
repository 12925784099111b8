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

	libatm "github.com/nabbar/golib/atomic"
	libeng "github.com/nabbar/golib/engine"
	libhdl "github.com/nabbar/golib/handler"
	liblog "github.com/nabbar/golib/logger"
	libreg "github.com/nabbar/golib/registry"
	librun "github.com/nabbar/golib/runner/startStop"
)

// Info exposes read-only server identification, independent of whether the
// server is currently running.
type Info interface {
	// GetName returns the unique identifier of this server instance.
	GetName() string

	// GetBindable returns the local bind address (host:port).
	GetBindable() string

	// GetExpose returns the externally reachable URL for this server.
	GetExpose() string

	// IsDisable reports whether this server is configured to never start.
	IsDisable() bool

	// IsTLS reports whether this server has a usable TLS configuration.
	IsTLS() bool
}

// Server supervises one engine.Engine bound to one listening socket. All
// methods are safe for concurrent use.
type Server interface {
	librun.StartStop
	Info

	// Handler replaces the handler.Executor dispatched for every request.
	// Safe to call while running, but a running engine keeps dispatching to
	// the executor it was started with; the replacement takes effect on the
	// next Start or Restart.
	Handler(h libhdl.Executor)

	// GetConfig returns a copy of the current configuration.
	GetConfig() Config

	// SetConfig validates and replaces the configuration. The server must
	// be stopped; ErrorConfigRunning is returned otherwise.
	SetConfig(cfg Config, defLog liblog.FuncLog) error

	// ActiveConnections returns the number of connections currently held
	// open by the underlying engine, or 0 if not running.
	ActiveConnections() int

	// Registry exposes this server's own connection handle table, for
	// embedders that want to inspect individual connections out of band.
	Registry() libreg.Registry

	// MonitorName returns the identifier this server should be registered
	// under in an embedder's monitoring pool.
	MonitorName() string

	// HealthCheck reports whether the server is running and its bound
	// address is still accepting connections. Meant to be called by an
	// embedder's own monitoring loop on a timer.
	HealthCheck(ctx context.Context) error
}

// New creates a Server from the given configuration. The configuration is
// validated before any socket is touched.
func New(cfg Config, defLog liblog.FuncLog) (Server, error) {
	s := &srv{
		exe: libatm.NewValue[libhdl.Executor](),
		log: libatm.NewValue[liblog.FuncLog](),
		eng: libatm.NewValue[*libeng.Engine](),
		reg: libreg.New(),
	}

	s.exe.Store(libhdl.FromFunc(defaultExecutorFunc))

	if e := s.SetConfig(cfg, defLog); e != nil {
		return nil, e
	}

	s.run = librun.New(s.doStart, s.doStop)

	return s, nil
}

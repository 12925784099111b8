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
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	libatm "github.com/nabbar/golib/atomic"
	libeng "github.com/nabbar/golib/engine"
	libhdl "github.com/nabbar/golib/handler"
	liblog "github.com/nabbar/golib/logger"
	libreg "github.com/nabbar/golib/registry"
	librun "github.com/nabbar/golib/runner/startStop"
	libsck "github.com/nabbar/golib/socket"
)

// defaultExecutorFunc answers every request with 501 until an embedder
// registers a real handler.Executor via Server.Handler.
func defaultExecutorFunc(_ libhdl.Context, _ libhdl.Request) (libhdl.Response, error) {
	return libhdl.NewResponse(http.StatusNotImplemented, nil), nil
}

type srv struct {
	mu  sync.RWMutex
	cfg Config

	exe libatm.Value[libhdl.Executor]
	log libatm.Value[liblog.FuncLog]
	eng libatm.Value[*libeng.Engine]
	reg libreg.Registry

	run librun.StartStop
}

func (s *srv) Start(ctx context.Context) error    { return s.run.Start(ctx) }
func (s *srv) Stop(ctx context.Context) error     { return s.run.Stop(ctx) }
func (s *srv) Restart(ctx context.Context) error  { return s.run.Restart(ctx) }
func (s *srv) IsRunning() bool                    { return s.run.IsRunning() }
func (s *srv) Uptime() time.Duration              { return s.run.Uptime() }
func (s *srv) ErrorsLast() error                  { return s.run.ErrorsLast() }
func (s *srv) ErrorsList() []error                { return s.run.ErrorsList() }

func (s *srv) Handler(h libhdl.Executor) {
	if h == nil {
		return
	}
	s.exe.Store(h)
}

func (s *srv) Registry() libreg.Registry {
	return s.reg
}

func (s *srv) GetConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

func (s *srv) SetConfig(cfg Config, defLog liblog.FuncLog) error {
	if s.run != nil && s.run.IsRunning() {
		return ErrorConfigRunning.Error(nil)
	}

	cfg = cfg.Clone()
	if cfg.Name == "" {
		cfg.Name = cfg.Listen
	}

	if e := cfg.Validate(); e != nil {
		return ErrorConfigValidate.Error(e)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if defLog != nil {
		s.log.Store(defLog)
	}

	return nil
}

func (s *srv) GetName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Name
}

func (s *srv) GetBindable() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Listen
}

func (s *srv) GetExpose() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.cfg.GetExpose(); u != nil {
		return u.String()
	}
	return s.cfg.Expose
}

func (s *srv) IsDisable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Disabled
}

func (s *srv) IsTLS() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.IsTLS()
}

func (s *srv) ActiveConnections() int {
	if e := s.eng.Load(); e != nil {
		return e.ActiveConnections()
	}
	return 0
}

// doStart is the runner/startStop start function: it binds the listening
// socket, builds and starts the engine, then blocks until ctx is cancelled
// before draining the engine down.
func (s *srv) doStart(ctx context.Context) error {
	cfg := s.GetConfig()

	if cfg.Disabled {
		<-ctx.Done()
		return nil
	}

	if !cfg.ReusePort && PortInUse(ctx, cfg.Listen) {
		if lg := s.log.Load(); lg != nil {
			if l := lg(); l != nil {
				l.Warning("listen address already in use, bind will likely fail", cfg.Listen)
			}
		}
	}

	ln, err := libsck.Listen(cfg.toSocketConfig())
	if err != nil {
		return ErrorListenSocket.Error(err)
	}

	ecfg := cfg.toEngineConfig()
	ecfg.Executor = s.exe.Load()
	ecfg.Registry = s.reg
	ecfg.ServerHandle = cfg.Name
	if lg := s.log.Load(); lg != nil {
		ecfg.Logger = lg
	}

	eng, err := libeng.New(ecfg)
	if err != nil {
		_ = ln.Close()
		return err
	}

	if cfg.TLSMandatory && !cfg.IsTLS() {
		_ = ln.Close()
		return ErrorConfigValidate.Error(nil)
	}

	var tlsCfg *tls.Config
	if cfg.IsTLS() {
		tlsCfg = cfg.GetTLS().TLS(cfg.Name)
	}

	eng.AddListener(ln, tlsCfg)

	if err = eng.Start(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	s.eng.Store(eng)
	defer s.eng.Store(nil)

	<-ctx.Done()

	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = 15 * time.Second
	}

	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	return eng.Shutdown(sctx)
}

// doStop is a no-op: cancelling the start function's context (done by
// runner/startStop.Stop before calling this) already drives the engine
// through its drain-and-shutdown sequence inside doStart.
func (s *srv) doStop(_ context.Context) error {
	return nil
}

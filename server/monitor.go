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
	"fmt"
	"net"
	"time"

	loglvl "github.com/nabbar/golib/logger/level"
)

const portProbeHealthTimeout = 50 * time.Millisecond

// MonitorName returns the identifier an embedder's monitoring pool would
// register this server under: a human-readable label plus the bind address,
// so two servers sharing a name are still told apart in health reports.
func (s *srv) MonitorName() string {
	return fmt.Sprintf("connection server [%s]", s.GetBindable())
}

// HealthCheck reports whether this server is accepting connections: it must
// be running, its engine must not have recorded a terminal error, and the
// bound address must still answer a short-lived dial. It is meant to be
// wired into an embedder's own health-check/monitoring loop; it does not
// start one itself.
func (s *srv) HealthCheck(ctx context.Context) error {
	var e error

	if lg := s.log.Load(); lg != nil {
		if l := lg(); l != nil {
			defer func() {
				l.Entry(loglvl.InfoLevel, "healthcheck").ErrorAdd(true, e).Check(loglvl.ErrorLevel)
			}()
		}
	}

	if !s.IsRunning() {
		e = ErrorNotRunning.Error(nil)
		return e
	}

	if le := s.ErrorsLast(); le != nil {
		e = le
		return e
	}

	if e = s.dialSelf(ctx); e != nil {
		e = ErrorNotRunning.Error(e)
		return e
	}

	return nil
}

// dialSelf probes the server's own bind address, the same technique
// PortInUse uses to preflight a bind, reused here to confirm the listener
// is still actually accepting rather than merely marked as running.
func (s *srv) dialSelf(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, portProbeHealthTimeout)
		defer cancel()
	}

	d := net.Dialer{}
	c, e := d.DialContext(ctx, "tcp", dialableAddress(s.GetBindable()))
	if e != nil {
		return e
	}

	return c.Close()
}

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

import "time"

// InfoSnapshot is a point-in-time copy of a Server's identity and liveness,
// safe to retain and serialize independent of the Server's own lifecycle.
type InfoSnapshot struct {
	Name              string        `json:"name" yaml:"name"`
	Bindable          string        `json:"bindable" yaml:"bindable"`
	Expose            string        `json:"expose" yaml:"expose"`
	Disabled          bool          `json:"disabled" yaml:"disabled"`
	TLS               bool          `json:"tls" yaml:"tls"`
	Running           bool          `json:"running" yaml:"running"`
	Uptime            time.Duration `json:"uptime" yaml:"uptime"`
	ActiveConnections int           `json:"activeConnections" yaml:"activeConnections"`
	LastError         string        `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// Snapshot captures one Server's current state for status reporting.
func Snapshot(s Server) InfoSnapshot {
	snap := InfoSnapshot{
		Name:              s.GetName(),
		Bindable:          s.GetBindable(),
		Expose:            s.GetExpose(),
		Disabled:          s.IsDisable(),
		TLS:               s.IsTLS(),
		Running:           s.IsRunning(),
		Uptime:            s.Uptime(),
		ActiveConnections: s.ActiveConnections(),
	}

	if e := s.ErrorsLast(); e != nil {
		snap.LastError = e.Error()
	}

	return snap
}

// SnapshotPool captures every server held by a PoolServer.
func SnapshotPool(p PoolServer) []InfoSnapshot {
	out := make([]InfoSnapshot, 0, p.Len())

	p.MapRun(func(srv Server) {
		out = append(out, Snapshot(srv))
	})

	return out
}

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
	"time"

	"github.com/go-playground/validator/v10"

	libhdl "github.com/nabbar/golib/handler"
	liblog "github.com/nabbar/golib/logger"
	libmet "github.com/nabbar/golib/metrics"
	libreg "github.com/nabbar/golib/registry"
)

// Config tunes a running Engine. NumThreads workers are spawned, each
// capped at ThreadMaxConn simultaneous connections.
type Config struct {
	NumThreads      int           `mapstructure:"numThreads" json:"numThreads" yaml:"numThreads" toml:"numThreads" validate:"required,min=1"`
	ThreadMaxConn   int           `mapstructure:"threadMaxConn" json:"threadMaxConn" yaml:"threadMaxConn" toml:"threadMaxConn" validate:"required,min=1"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout" toml:"readTimeout" validate:"required"`
	ConnTimeout     time.Duration `mapstructure:"connTimeout" json:"connTimeout" yaml:"connTimeout" toml:"connTimeout" validate:"required"`
	ThreadStackSize int           `mapstructure:"threadStackSize" json:"threadStackSize" yaml:"threadStackSize" toml:"threadStackSize"`
	GCThreshold     uint64        `mapstructure:"gcThreshold" json:"gcThreshold" yaml:"gcThreshold" toml:"gcThreshold"`
	// ShutdownGrace bounds how long the drain phase waits for in-flight
	// connections to finish after a terminate request before the worker
	// exits regardless of num_conns.
	ShutdownGrace time.Duration `mapstructure:"shutdownGrace" json:"shutdownGrace" yaml:"shutdownGrace" toml:"shutdownGrace"`

	Executor libhdl.Executor
	Registry libreg.Registry
	Logger   liblog.FuncLog
	Metrics  libmet.Collector

	ServerHandle string
}

// metrics returns Metrics, falling back to a Collector that discards every
// observation so call sites never need a nil check.
func (c Config) metrics() libmet.Collector {
	if c.Metrics == nil {
		return libmet.Noop()
	}
	return c.Metrics
}

func (c Config) Validate() error {
	vld := validator.New()
	return vld.Struct(c)
}

// DefaultConfig mirrors common connection-server tuning: 4 worker threads,
// 4096 connections per thread, a 30s read timeout, a 60s ConnTimeout, and a
// GC sweep every 10000 requests. No worker reads ConnTimeout: idle
// keep-alive connections are not closed on a timer.
func DefaultConfig() Config {
	return Config{
		NumThreads:      4,
		ThreadMaxConn:   4096,
		ReadTimeout:     30 * time.Second,
		ConnTimeout:     60 * time.Second,
		ThreadStackSize: 0,
		GCThreshold:     10000,
		ShutdownGrace:   15 * time.Second,
	}
}

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
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	libtls "github.com/nabbar/golib/certificates"
	libeng "github.com/nabbar/golib/engine"
	libmet "github.com/nabbar/golib/metrics"
	libsck "github.com/nabbar/golib/socket"
)

// Config describes one listening endpoint: its bind/expose address, its
// TLS material, and the worker tuning handed to the engine.
type Config struct {
	getTLSDefault    func() libtls.TLSConfig
	getParentContext func() context.Context
	metrics          libmet.Collector

	// Disabled allows a server to be kept in a pool's configuration
	// without being started.
	Disabled bool `mapstructure:"disabled" json:"disabled" yaml:"disabled" toml:"disabled"`

	// Name identifies this server instance; defaults to Listen if empty.
	Name string `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`

	// Listen is the local bind address (host:port).
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"required,hostname_port"`

	// Expose is the externally reachable URL for this server.
	Expose string `mapstructure:"expose" json:"expose" yaml:"expose" toml:"expose" validate:"required,url"`

	// TLSMandatory requires a valid certificate pair to start; otherwise a
	// server with no usable TLS config falls back to plaintext.
	TLSMandatory bool `mapstructure:"tlsMandatory" json:"tlsMandatory" yaml:"tlsMandatory" toml:"tlsMandatory"`

	// TLS configures this server's certificate pair(s). An empty Config
	// with no InheritDefault leaves the server plaintext.
	TLS libtls.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`

	// Backlog, ReuseAddr, ReusePort and KeepAlive tune the listening
	// socket; see socket.ListenConfig.
	Backlog   int                   `mapstructure:"backlog" json:"backlog" yaml:"backlog" toml:"backlog" validate:"required,min=1"`
	ReuseAddr bool                  `mapstructure:"reuseAddr" json:"reuseAddr" yaml:"reuseAddr" toml:"reuseAddr"`
	ReusePort bool                  `mapstructure:"reusePort" json:"reusePort" yaml:"reusePort" toml:"reusePort"`
	KeepAlive libsck.KeepAliveConfig `mapstructure:"keepAlive" json:"keepAlive" yaml:"keepAlive" toml:"keepAlive"`

	// NumThreads, ThreadMaxConn, ReadTimeout, ConnTimeout, ThreadStackSize,
	// GCThreshold and ShutdownGrace tune the engine worker pool; see
	// engine.Config.
	NumThreads      int           `mapstructure:"numThreads" json:"numThreads" yaml:"numThreads" toml:"numThreads" validate:"required,min=1"`
	ThreadMaxConn   int           `mapstructure:"threadMaxConn" json:"threadMaxConn" yaml:"threadMaxConn" toml:"threadMaxConn" validate:"required,min=1"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout" toml:"readTimeout" validate:"required"`
	ConnTimeout     time.Duration `mapstructure:"connTimeout" json:"connTimeout" yaml:"connTimeout" toml:"connTimeout" validate:"required"`
	ThreadStackSize int           `mapstructure:"threadStackSize" json:"threadStackSize" yaml:"threadStackSize" toml:"threadStackSize"`
	GCThreshold     uint64        `mapstructure:"gcThreshold" json:"gcThreshold" yaml:"gcThreshold" toml:"gcThreshold"`
	ShutdownGrace   time.Duration `mapstructure:"shutdownGrace" json:"shutdownGrace" yaml:"shutdownGrace" toml:"shutdownGrace"`
}

// DefaultConfig mirrors engine.DefaultConfig/socket.DefaultListenConfig,
// bound to a plaintext listener on :8080.
func DefaultConfig() Config {
	sck := libsck.DefaultListenConfig()
	eng := libeng.DefaultConfig()

	return Config{
		Name:            "default",
		Listen:          sck.Address,
		Expose:          "http://localhost:8080",
		Backlog:         sck.Backlog,
		ReuseAddr:       sck.ReuseAddr,
		ReusePort:       sck.ReusePort,
		KeepAlive:       sck.KeepAlive,
		NumThreads:      eng.NumThreads,
		ThreadMaxConn:   eng.ThreadMaxConn,
		ReadTimeout:     eng.ReadTimeout,
		ConnTimeout:     eng.ConnTimeout,
		ThreadStackSize: eng.ThreadStackSize,
		GCThreshold:     eng.GCThreshold,
		ShutdownGrace:   eng.ShutdownGrace,
	}
}

func (c Config) Clone() Config {
	n := c
	n.Name = strings.TrimSpace(c.Name)
	return n
}

// SetDefaultTLS registers a fallback TLS configuration used whenever this
// Config's own TLS has InheritDefault set.
func (c *Config) SetDefaultTLS(f func() libtls.TLSConfig) {
	c.getTLSDefault = f
}

func (c *Config) SetParentContext(f func() context.Context) {
	c.getParentContext = f
}

// SetMetrics registers the Collector the engine reports connection and
// request observations to. A Config with no Collector falls back to
// metrics.Noop().
func (c *Config) SetMetrics(m libmet.Collector) {
	c.metrics = m
}

func (c Config) getContext() context.Context {
	if c.getParentContext != nil {
		if ctx := c.getParentContext(); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// GetTLS resolves this Config's TLS material against the registered
// default, returning nil when neither defines one.
func (c Config) GetTLS() libtls.TLSConfig {
	var def libtls.TLSConfig

	if c.getTLSDefault != nil {
		def = c.getTLSDefault()
	}

	return c.TLS.NewFrom(def)
}

func (c Config) IsTLS() bool {
	ssl := c.GetTLS()
	return ssl != nil && ssl.LenCertificatePair() > 0
}

func (c Config) GetListen() *url.URL {
	if c.Listen == "" {
		return nil
	}
	if add, err := url.Parse(c.Listen); err == nil && add.Host != "" {
		return add
	}
	if host, port, err := net.SplitHostPort(c.Listen); err == nil {
		return &url.URL{Host: fmt.Sprintf("%s:%s", host, port)}
	}
	return nil
}

func (c Config) GetExpose() *url.URL {
	if c.Expose != "" {
		if add, err := url.Parse(c.Expose); err == nil {
			return add
		}
	}

	add := c.GetListen()
	if add == nil {
		return nil
	}
	if c.IsTLS() {
		add.Scheme = "https"
	} else {
		add.Scheme = "http"
	}
	return add
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

func (c Config) toSocketConfig() libsck.ListenConfig {
	return libsck.ListenConfig{
		Address:   c.Listen,
		Backlog:   c.Backlog,
		ReuseAddr: c.ReuseAddr,
		ReusePort: c.ReusePort,
		KeepAlive: c.KeepAlive,
	}
}

func (c Config) toEngineConfig() libeng.Config {
	return libeng.Config{
		NumThreads:      c.NumThreads,
		ThreadMaxConn:   c.ThreadMaxConn,
		ReadTimeout:     c.ReadTimeout,
		ConnTimeout:     c.ConnTimeout,
		ThreadStackSize: c.ThreadStackSize,
		GCThreshold:     c.GCThreshold,
		ShutdownGrace:   c.ShutdownGrace,
		Metrics:         c.metrics,
	}
}

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

package socket

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// KeepAliveConfig tunes the TCP keepalive probes applied to every accepted
// connection. Idle is the delay before the first probe, Interval the delay
// between probes, and Count the number of unanswered probes tolerated
// before the kernel drops the connection.
type KeepAliveConfig struct {
	Enable   bool          `mapstructure:"enable" json:"enable" yaml:"enable" toml:"enable"`
	Idle     time.Duration `mapstructure:"idle" json:"idle" yaml:"idle" toml:"idle" validate:"required_if=Enable true"`
	Interval time.Duration `mapstructure:"interval" json:"interval" yaml:"interval" toml:"interval" validate:"required_if=Enable true"`
	Count    int           `mapstructure:"count" json:"count" yaml:"count" toml:"count" validate:"required_if=Enable true,omitempty,min=1"`
}

func (c KeepAliveConfig) Validate() error {
	vld := validator.New()

	if err := vld.Struct(c); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return err
		}
		return err
	}

	return nil
}

// ListenConfig describes the socket-level parameters of one listening
// endpoint, independent of TLS and of the engine's worker assignment.
type ListenConfig struct {
	// Address is a "host:port" pair. An empty or "0.0.0.0"/"::" host binds
	// the IPv6 wildcard address with IPV6_V6ONLY disabled, accepting both
	// IPv4 and IPv6 peers on the same socket.
	Address string `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required,hostname_port"`

	// Backlog is the pending-connection queue length passed to listen(2).
	Backlog int `mapstructure:"backlog" json:"backlog" yaml:"backlog" toml:"backlog" validate:"required,min=1"`

	// ReuseAddr enables SO_REUSEADDR; ReusePort enables SO_REUSEPORT so
	// multiple processes may share the same listening address.
	ReuseAddr bool `mapstructure:"reuseAddr" json:"reuseAddr" yaml:"reuseAddr" toml:"reuseAddr"`
	ReusePort bool `mapstructure:"reusePort" json:"reusePort" yaml:"reusePort" toml:"reusePort"`

	KeepAlive KeepAliveConfig `mapstructure:"keepAlive" json:"keepAlive" yaml:"keepAlive" toml:"keepAlive"`
}

func (c ListenConfig) Validate() error {
	vld := validator.New()

	if err := vld.Struct(c); err != nil {
		return err
	}

	return c.KeepAlive.Validate()
}

// DefaultListenConfig returns sane defaults mirroring common HTTP server
// tuning: a 1024-entry backlog, SO_REUSEADDR enabled, and keepalive probing
// after 60s of idle, every 15s, tolerating 4 missed probes.
func DefaultListenConfig() ListenConfig {
	return ListenConfig{
		Address:   ":8080",
		Backlog:   1024,
		ReuseAddr: true,
		ReusePort: false,
		KeepAlive: KeepAliveConfig{
			Enable:   true,
			Idle:     60 * time.Second,
			Interval: 15 * time.Second,
			Count:    4,
		},
	}
}

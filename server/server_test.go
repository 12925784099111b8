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

package server_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/handler"
	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/golib/server"
)

func defLog() liblog.Logger { return nil }

func newTestConfig(port int) server.Config {
	cfg := server.DefaultConfig()
	cfg.Name = "test"
	cfg.Listen = addr(port)
	cfg.Expose = "http://" + addr(port)
	cfg.NumThreads = 1
	cfg.ThreadMaxConn = 8
	return cfg
}

func readResponse(conn net.Conn) string {
	buf := make([]byte, 8192)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	n, err := conn.Read(buf)
	Expect(err).ToNot(HaveOccurred())
	return string(buf[:n])
}

// dialEventually retries the connect since Server.Start binds its listener
// from inside the asynchronous start function, not before returning.
func dialEventually(address string) net.Conn {
	var conn net.Conn
	Eventually(func() error {
		c, err := net.Dial("tcp", address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, "3s", "20ms").Should(Succeed())
	return conn
}

var _ = Describe("Config", func() {
	It("validates a default config once Name/Listen/Expose are set", func() {
		cfg := newTestConfig(getFreePort())
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects a config missing a required field", func() {
		cfg := newTestConfig(getFreePort())
		cfg.Name = ""
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("reports plaintext expose scheme when no TLS is configured", func() {
		cfg := newTestConfig(getFreePort())
		cfg.Expose = ""
		Expect(cfg.GetExpose().Scheme).To(Equal("http"))
	})
})

var _ = Describe("Server", func() {
	var srv server.Server

	AfterEach(func() {
		if srv != nil {
			_ = srv.Stop(context.Background())
		}
	})

	It("serves a request through a custom executor after Start", func() {
		port := getFreePort()
		cfg := newTestConfig(port)

		s, err := server.New(cfg, defLog)
		Expect(err).ToNot(HaveOccurred())
		srv = s

		srv.Handler(handler.FromFunc(func(_ handler.Context, req handler.Request) (handler.Response, error) {
			resp := handler.NewResponse(200, []byte(req.Path))
			resp.Headers.Set("Connection", "close")
			return resp, nil
		}))

		Expect(srv.Start(context.Background())).To(Succeed())

		conn := dialEventually(addr(port))
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() string {
			return readResponse(conn)
		}, "3s", "50ms").Should(ContainSubstring("/ping"))
	})

	It("refuses SetConfig while running", func() {
		port := getFreePort()
		cfg := newTestConfig(port)

		s, err := server.New(cfg, defLog)
		Expect(err).ToNot(HaveOccurred())
		srv = s

		Expect(srv.Start(context.Background())).To(Succeed())
		Expect(srv.SetConfig(newTestConfig(getFreePort()), defLog)).To(HaveOccurred())
	})

	It("reports zero active connections once stopped", func() {
		port := getFreePort()
		cfg := newTestConfig(port)

		s, err := server.New(cfg, defLog)
		Expect(err).ToNot(HaveOccurred())
		srv = s

		Expect(srv.Start(context.Background())).To(Succeed())
		Expect(srv.Stop(context.Background())).To(Succeed())
		Expect(srv.ActiveConnections()).To(Equal(0))
	})
})

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

package engine_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/engine"
	"github.com/nabbar/golib/handler"
	"github.com/nabbar/golib/registry"
	"github.com/nabbar/golib/socket"
)

func socketCfgFor(port int) socket.ListenConfig {
	cfg := socket.DefaultListenConfig()
	cfg.Address = addr(port)
	return cfg
}

func startEngine(exec handler.Executor, port int) (*engine.Engine, context.CancelFunc) {
	cfg := engine.DefaultConfig()
	cfg.NumThreads = 2
	cfg.Executor = exec
	cfg.Registry = registry.New()
	cfg.ServerHandle = "test-server"

	e, err := engine.New(cfg)
	Expect(err).ToNot(HaveOccurred())

	ln, err := socket.Listen(socketCfgFor(port))
	Expect(err).ToNot(HaveOccurred())
	e.AddListener(ln, nil)

	ctx, cancel := context.WithCancel(context.Background())
	Expect(e.Start(ctx)).To(Succeed())

	return e, cancel
}

func readResponse(conn net.Conn) string {
	buf := make([]byte, 8192)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	n, err := conn.Read(buf)
	Expect(err).ToNot(HaveOccurred())
	return string(buf[:n])
}

var _ = Describe("Engine", func() {
	var (
		e      *engine.Engine
		cancel context.CancelFunc
		port   int
	)

	AfterEach(func() {
		if e != nil {
			_ = e.Shutdown(context.Background())
		}
		if cancel != nil {
			cancel()
		}
	})

	It("serves a plain GET request in a single chunk", func() {
		port = getFreePort()
		exec := handler.FromFunc(func(_ handler.Context, req handler.Request) (handler.Response, error) {
			Expect(req.Method).To(Equal("GET"))
			resp := handler.NewResponse(200, []byte("hello"))
			resp.Headers.Set("Connection", "close")
			return resp, nil
		})
		e, cancel = startEngine(exec, port)

		conn, err := net.Dial("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() string {
			return readResponse(conn)
		}, "3s", "50ms").Should(ContainSubstring("200"))
	})

	It("returns 400 for a malformed request line", func() {
		port = getFreePort()
		exec := handler.FromFunc(func(_ handler.Context, _ handler.Request) (handler.Response, error) {
			return handler.NewResponse(200, nil), nil
		})
		e, cancel = startEngine(exec, port)

		conn, err := net.Dial("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("NOT A REQUEST\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() string {
			return readResponse(conn)
		}, "3s", "50ms").Should(ContainSubstring("400"))
	})

	It("reuses the same connection for a second keepalive request", func() {
		port = getFreePort()
		count := 0
		exec := handler.FromFunc(func(_ handler.Context, req handler.Request) (handler.Response, error) {
			count++
			return handler.NewResponse(200, []byte(req.Path)), nil
		})
		e, cancel = startEngine(exec, port)

		conn, err := net.Dial("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		_, err = conn.Write([]byte("GET /first HTTP/1.1\r\nHost: x\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		var first string
		Eventually(func() string {
			first = readResponse(conn)
			return first
		}, "3s", "50ms").Should(ContainSubstring("/first"))

		_, err = conn.Write([]byte("GET /second HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() string {
			return readResponse(conn)
		}, "3s", "50ms").Should(ContainSubstring("/second"))

		Expect(count).To(Equal(2))
	})

	It("rejects a connection once the per-worker admission cap is reached", func() {
		port = getFreePort()
		exec := handler.FromFunc(func(_ handler.Context, _ handler.Request) (handler.Response, error) {
			time.Sleep(500 * time.Millisecond)
			return handler.NewResponse(200, []byte("ok")), nil
		})

		cfg := engine.DefaultConfig()
		cfg.NumThreads = 1
		cfg.ThreadMaxConn = 1
		cfg.Executor = exec
		cfg.Registry = registry.New()

		eng, err := engine.New(cfg)
		Expect(err).ToNot(HaveOccurred())
		ln, err := socket.Listen(socketCfgFor(port))
		Expect(err).ToNot(HaveOccurred())
		eng.AddListener(ln, nil)

		ctx, c := context.WithCancel(context.Background())
		e = eng
		cancel = c
		Expect(eng.Start(ctx)).To(Succeed())

		first, err := net.Dial("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = first.Close() }()

		Eventually(func() int { return eng.ActiveConnections() }, "2s", "20ms").Should(Equal(1))

		second, err := net.Dial("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = second.Close() }()

		buf := make([]byte, 16)
		_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _ := second.Read(buf)
		Expect(n).To(Equal(0))
	})
})

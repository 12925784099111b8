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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/server"
)

var _ = Describe("PortInUse", func() {
	It("reports false for a free port", func() {
		port := getFreePort()
		Expect(server.PortInUse(context.Background(), addr(port))).To(BeFalse())
	})

	It("reports true once something is listening", func() {
		port := getFreePort()
		ln, err := net.Listen("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ln.Close() }()

		Expect(server.PortInUse(context.Background(), addr(port))).To(BeTrue())
	})

	It("rewrites a wildcard bind address to loopback before probing", func() {
		port := getFreePort()
		ln, err := net.Listen("tcp", addr(port))
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = ln.Close() }()

		wildcard := "0.0.0.0:" + addr(port)[len("127.0.0.1:"):]
		Expect(server.PortInUse(context.Background(), wildcard)).To(BeTrue())
	})
})

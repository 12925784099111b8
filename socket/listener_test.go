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

package socket_test

import (
	"fmt"
	"net"
	"time"

	libsck "github.com/nabbar/golib/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listen", func() {
	It("binds a dual-stack wildcard listener and accepts an IPv4 peer", func() {
		port := getFreePort()
		cfg := libsck.DefaultListenConfig()
		cfg.Address = fmt.Sprintf(":%d", port)

		lstn, err := libsck.Listen(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(lstn).ToNot(BeNil())
		defer func() { _ = lstn.Close() }()

		conn, derr := net.DialTimeout("tcp4", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
		Expect(derr).ToNot(HaveOccurred())
		defer func() { _ = conn.Close() }()

		Eventually(func() bool {
			_, _, ok, aerr := lstn.Accept()
			Expect(aerr).ToNot(HaveOccurred())
			return ok
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})

	It("returns ok=false with no error when nothing is pending", func() {
		port := getFreePort()
		cfg := libsck.DefaultListenConfig()
		cfg.Address = fmt.Sprintf(":%d", port)

		lstn, err := libsck.Listen(cfg)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = lstn.Close() }()

		_, _, ok, aerr := lstn.Accept()
		Expect(aerr).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("rejects an invalid address", func() {
		cfg := libsck.DefaultListenConfig()
		cfg.Address = "not-an-address"

		_, err := libsck.Listen(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a zero backlog at validation", func() {
		cfg := libsck.DefaultListenConfig()
		cfg.Backlog = 0

		Expect(cfg.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("IsWildcard", func() {
	It("recognizes the empty host, 0.0.0.0 and :: as wildcard", func() {
		Expect(libsck.IsWildcard("")).To(BeTrue())
		Expect(libsck.IsWildcard("0.0.0.0")).To(BeTrue())
		Expect(libsck.IsWildcard("::")).To(BeTrue())
		Expect(libsck.IsWildcard("127.0.0.1")).To(BeFalse())
	})
})

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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/server"
)

func newTestServer(port int) server.Server {
	s, err := server.New(newTestConfig(port), defLog)
	Expect(err).ToNot(HaveOccurred())
	return s
}

var _ = Describe("PoolServer", func() {
	It("adds, finds and removes servers by bind address", func() {
		a := newTestServer(getFreePort())
		b := newTestServer(getFreePort())

		p, err := server.NewPool().Add(a, b)
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Len()).To(Equal(2))

		Expect(p.Has(a.GetBindable())).To(BeTrue())
		Expect(p.Get(a.GetBindable())).To(Equal(a))

		p = p.Del(a.GetBindable())
		Expect(p.Len()).To(Equal(1))
		Expect(p.Has(a.GetBindable())).To(BeFalse())
	})

	It("replaces a server registered at the same bind address", func() {
		port := getFreePort()
		a := newTestServer(port)
		b := newTestServer(port)

		p, err := server.NewPool().Add(a)
		Expect(err).ToNot(HaveOccurred())

		p, err = p.Add(b)
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Len()).To(Equal(1))
		Expect(p.Get(b.GetBindable())).To(Equal(b))
	})

	It("starts and shuts down every server in the pool", func() {
		a := newTestServer(getFreePort())
		b := newTestServer(getFreePort())

		p, err := server.NewPool().Add(a, b)
		Expect(err).ToNot(HaveOccurred())

		Expect(p.Start(context.Background())).To(Succeed())
		Expect(p.IsRunning(true)).To(BeTrue())

		p.Shutdown(context.Background())
		Expect(p.IsRunning(false)).To(BeFalse())
	})

	It("filters by name pattern", func() {
		a := newTestServer(getFreePort())
		p, err := server.NewPool().Add(a)
		Expect(err).ToNot(HaveOccurred())

		names := p.List(server.FieldName, server.FieldName, a.GetName(), "")
		Expect(names).To(ContainElement(a.GetName()))

		filtered := p.Filter(server.FieldName, a.GetName(), "")
		Expect(filtered.Len()).To(Equal(1))
	})
})

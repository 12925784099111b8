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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/server"
)

var _ = Describe("Snapshot", func() {
	It("reflects a freshly created, not-yet-started server", func() {
		s := newTestServer(getFreePort())

		snap := server.Snapshot(s)
		Expect(snap.Name).To(Equal(s.GetName()))
		Expect(snap.Bindable).To(Equal(s.GetBindable()))
		Expect(snap.Running).To(BeFalse())
		Expect(snap.ActiveConnections).To(Equal(0))
		Expect(snap.LastError).To(BeEmpty())
	})

	It("captures every server held by a pool", func() {
		a := newTestServer(getFreePort())
		b := newTestServer(getFreePort())

		p, err := server.NewPool().Add(a, b)
		Expect(err).ToNot(HaveOccurred())

		snaps := server.SnapshotPool(p)
		Expect(snaps).To(HaveLen(2))
	})
})

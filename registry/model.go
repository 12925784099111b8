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

package registry

import (
	"sync"

	uuid "github.com/hashicorp/go-uuid"

	libatm "github.com/nabbar/golib/atomic"
)

type entry struct {
	loc  Location
	info Info
}

type reg struct {
	mu sync.RWMutex
	m  libatm.MapTyped[string, entry]
}

func newRegistry() *reg {
	return &reg{
		m: libatm.NewMapTyped[string, entry](),
	}
}

func (r *reg) Register(loc Location, info Info) (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		h, err := uuid.GenerateUUID()
		if err != nil {
			return "", ErrorHandleGenerate.Error(err)
		}

		info.Handle = h

		r.mu.Lock()
		if _, exists := r.m.Load(h); exists {
			r.mu.Unlock()
			continue
		}
		r.m.Store(h, entry{loc: loc, info: info})
		r.mu.Unlock()

		return h, nil
	}

	return "", ErrorHandleDuplicate.Error(nil)
}

func (r *reg) Resolve(handle string) (Location, bool) {
	e, ok := r.m.Load(handle)
	if !ok {
		return Location{}, false
	}
	return e.loc, true
}

func (r *reg) Lookup(handle string) (Info, bool) {
	e, ok := r.m.Load(handle)
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

func (r *reg) Touch(handle string, info Info) bool {
	e, ok := r.m.Load(handle)
	if !ok {
		return false
	}

	info.Handle = handle
	e.info = info
	r.m.Store(handle, e)
	return true
}

func (r *reg) Unregister(handle string) {
	r.m.Delete(handle)
}

func (r *reg) Len() int {
	n := 0
	r.m.Range(func(_ string, _ entry) bool {
		n++
		return true
	})
	return n
}

func (r *reg) Walk(fn func(handle string, info Info) bool) {
	r.m.Range(func(h string, e entry) bool {
		return fn(h, e.info)
	})
}

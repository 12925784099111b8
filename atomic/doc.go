/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomic provides generic, lock-free value and map holders built on
// top of sync.Map and sync/atomic.Value.
//
// The connection server leans on these holders wherever a piece of runtime
// state is replaced wholesale rather than mutated in place:
//
//   - server.srv keeps its active libhdl.Executor, liblog.FuncLog and
//     *libeng.Engine behind Value[T], so a running listener can have its
//     handler, logger or engine swapped between accept loops without a mutex.
//   - registry keeps its named connection handles in a
//     MapTyped[string, entry], so lookups and hot-swaps of a single handle
//     never block unrelated connections.
//   - context.Config stores its arbitrary key/value pairs in a Map[T]
//     (via NewMapAny), giving every derived context a concurrent-safe bag
//     that does not need its own locking.
//   - errors/pool and the logger's file/syslog aggregators use
//     MapTyped[uint64, error] and MapTyped[string, *agg] respectively to
//     track per-key state across goroutines without a dedicated mutex type.
//
// Value[T] additionally supports default-load and default-store values, so a
// holder can report a sane zero-state before anything has been stored into
// it (Store, Swap and CompareAndSwap all substitute the configured store
// default for an empty input).
package atomic

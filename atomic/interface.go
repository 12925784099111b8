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

package atomic

import (
	"sync"
	"sync/atomic"
)

type Value[T any] interface {
	// SetDefaultLoad sets the value returned by Load before anything has been stored.
	//
	// Note: SetDefaultLoad should be called before first use of Load.
	SetDefaultLoad(def T)
	// SetDefaultStore sets the value substituted for an empty argument to Store, Swap
	// or CompareAndSwap.
	// Note: SetDefaultStore should be called before first use of Store.
	SetDefaultStore(def T)

	// Load returns the currently held value, e.g. the *libeng.Engine a server instance
	// is routing connections through.
	// If no value is present, the default load value (set by SetDefaultLoad) is returned.
	Load() (val T)
	// Store atomically replaces the held value, e.g. swapping in a new libhdl.Executor
	// while the server keeps accepting connections.
	// Note: Store will use the default store value (set by SetDefaultStore) if the value passed is empty.
	//
	// Example:
	//  exe := NewValue[libhdl.Executor]()
	//  exe.Store(myExecutor)
	Store(val T)
	// Swap atomically replaces the held value and returns the one it replaced, e.g. hot-swapping
	// the server's liblog.FuncLog between accept loops.
	// If the previous value is empty, the default store value (set by SetDefaultStore) is returned.
	Swap(new T) (old T)
	// CompareAndSwap atomically replaces the held value with new only if it currently equals old.
	// It returns true if the swap was successful, or false otherwise.
	//
	// Note: If the old value is empty, the default store value (set by SetDefaultStore) is used for comparison.
	// If the new value is empty, the default store value (set by SetDefaultStore) is used for swapping.
	CompareAndSwap(old, new T) (swapped bool)
}

// Map is the untyped-value counterpart of MapTyped, used by context.Config to back
// a key/value bag whose value type varies per key (see NewMapAny).
type Map[K comparable] interface {
	// Load returns the value stored for key, e.g. a single entry of a derived context's
	// configuration bag.
	// If no value is present, ok is false.
	Load(key K) (value any, ok bool)
	// Store atomically stores value for key, overwriting any value already present.
	Store(key K, value any)

	// LoadOrStore atomically loads the value for key if present, or stores and returns value otherwise.
	// Note: If the given value is zero, the default store value (set by SetDefaultStore) is used for storing.
	LoadOrStore(key K, value any) (actual any, loaded bool)
	// LoadAndDelete atomically loads and removes the value stored for key.
	// If the value was not present, the default load value (set by SetDefaultLoad) is returned, and loaded is false.
	LoadAndDelete(key K) (value any, loaded bool)

	// Delete removes the value stored for key, if any.
	Delete(key K)
	// Swap atomically replaces the value stored for key and returns the one it replaced.
	Swap(key K, value any) (previous any, loaded bool)

	// CompareAndSwap atomically replaces the value stored for key with new only if it currently equals old.
	CompareAndSwap(key K, old, new any) bool
	// CompareAndDelete atomically removes the value stored for key only if it currently equals old.
	CompareAndDelete(key K, old any) (deleted bool)

	// Range iterates the store in an unspecified order, calling f for each key/value pair
	// until f returns false or every entry has been visited.
	Range(f func(key K, value any) bool)
}

// MapTyped is the typed-value counterpart of Map, used wherever both the key and the
// value shape are known ahead of time: registry keys connection handles by name
// (MapTyped[string, entry]), errors/pool keys collected errors by a pool counter
// (MapTyped[uint64, error]), and the logger's file/syslog hooks key their per-target
// aggregator by destination path (MapTyped[string, *agg]).
type MapTyped[K comparable, V any] interface {
	// Load returns the value stored for key. If no value is present, ok is false.
	Load(key K) (value V, ok bool)
	// Store atomically stores value for key, overwriting any value already present.
	Store(key K, value V)

	// LoadOrStore atomically loads the value for key if present, or stores and returns value otherwise.
	//
	// Note: If the given value is zero, the default store value (set by SetDefaultStore) is used for storing.
	LoadOrStore(key K, value V) (actual V, loaded bool)
	// LoadAndDelete atomically loads and removes the value stored for key, e.g. draining a
	// collected error out of an errors/pool once it has been reported.
	// If the value was not present, the default load value (set by SetDefaultLoad) is returned, and loaded is false.
	LoadAndDelete(key K) (value V, loaded bool)

	// Delete removes the value stored for key, if any.
	Delete(key K)
	// Swap atomically replaces the value stored for key, e.g. hot-swapping a registry entry
	// for an existing connection handle, and returns the one it replaced.
	Swap(key K, value V) (previous V, loaded bool)

	// CompareAndSwap atomically replaces the value stored for key with new only if it currently equals old.
	CompareAndSwap(key K, old, new V) bool
	// CompareAndDelete atomically removes the value stored for key only if it currently equals old.
	CompareAndDelete(key K, old V) (deleted bool)

	// Range iterates the store in an unspecified order, calling f for each key/value pair
	// until f returns false or every entry has been visited, e.g. registry walking every
	// live connection handle to broadcast a shutdown signal.
	Range(f func(key K, value V) bool)
}

// NewValue returns a new Value with the given type. The default load value is the zero value
// of the given type, and the default store value is the zero value of the given type.
//
// Example: server.srv keeps its active libhdl.Executor behind such a holder so
// that Accept loops reading it never race with a reconfiguration calling Store.
func NewValue[T any]() Value[T] {
	var (
		tmp1 T
		tmp2 T
	)

	return NewValueDefault[T](tmp1, tmp2)
}

// NewValueDefault returns a new Value with the given type, default load value, and default store value.
// The default load value is the value passed to the load parameter, and the default store value is the value
// passed to the store parameter.
func NewValueDefault[T any](load, store T) Value[T] {
	o := &val[T]{
		av: new(atomic.Value),
		dl: new(atomic.Value),
		ds: new(atomic.Value),
	}

	o.SetDefaultLoad(load)
	o.SetDefaultStore(store)

	return o
}

// NewMapAny returns a new Map with the given key type, backed by a sync.Map.
// context.Config uses this to back a derived context's arbitrary key/value bag.
func NewMapAny[K comparable]() Map[K] {
	return &ma[K]{
		m: sync.Map{},
	}
}

// NewMapTyped returns a new Map with the given key type and value type, backed by a sync.Map.
// registry uses this to key connection handles by name; errors/pool uses it to key
// collected errors by a pool counter.
func NewMapTyped[K comparable, V any]() MapTyped[K, V] {
	return &mt[K, V]{
		m: NewMapAny[K](),
	}
}

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

package handler

// FuncHandler is the simplest Executor: a plain function invoked per
// request with no state to save or restore across calls. Most embedders
// only need this; the full Executor interface exists for embedders running
// a scripting VM that must checkpoint interpreter state around a call that
// may be interleaved with other connections on the same worker.
type FuncHandler func(ctx Context, req Request) (Response, error)

// Executor is the full embedder contract a worker drives around every
// dispatched request: CreateRequestView gives the embedder a chance to
// adapt the raw Request into whatever shape its runtime expects,
// SaveState/RestoreState bracket Invoke so a worker that interleaves many
// connections through one interpreter context can checkpoint and resume
// per-connection state, and Invoke performs the actual call.
type Executor interface {
	CreateRequestView(req Request) (view interface{}, err error)
	SaveState(ctx Context) (state interface{}, err error)
	Invoke(ctx Context, view interface{}) (Response, error)
	RestoreState(ctx Context, state interface{}) error
}

// funcExecutor adapts a FuncHandler to the Executor interface with no-op
// state save/restore, so the worker event loop only ever needs to drive
// Executor and embedders supplying a bare function get it for free.
type funcExecutor struct {
	fn FuncHandler
}

// FromFunc wraps fn as an Executor.
func FromFunc(fn FuncHandler) Executor {
	return &funcExecutor{fn: fn}
}

func (e *funcExecutor) CreateRequestView(req Request) (interface{}, error) {
	return req, nil
}

func (e *funcExecutor) SaveState(_ Context) (interface{}, error) {
	return nil, nil
}

func (e *funcExecutor) Invoke(ctx Context, view interface{}) (Response, error) {
	req, _ := view.(Request)
	return e.fn(ctx, req)
}

func (e *funcExecutor) RestoreState(_ Context, _ interface{}) error {
	return nil
}

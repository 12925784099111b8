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

// ShortCircuit is the error an "enter" middleware-style executor returns to
// bypass the rest of the chain: its Response is sent to the client as-is,
// and Invoke is not called. Equivalent to the spec's "error marker whose
// payload is itself a built response".
type ShortCircuit struct {
	Response Response
}

func (s *ShortCircuit) Error() string {
	return "request short-circuited"
}

// AsShortCircuit reports whether err is a ShortCircuit and returns its
// carried Response.
func AsShortCircuit(err error) (Response, bool) {
	sc, ok := err.(*ShortCircuit)
	if !ok {
		return Response{}, false
	}
	return sc.Response, true
}

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

import "strings"

// Header is a case-preserving multi-value header map, keyed exactly as
// received on the wire (the engine does not canonicalize header names).
type Header map[string][]string

// Get returns the first value for key, or "" if absent.
func (h Header) Get(key string) string {
	v, ok := h[key]
	if !ok || len(v) == 0 {
		return ""
	}
	return v[0]
}

// Set replaces all values for key.
func (h Header) Set(key, value string) {
	h[key] = []string{value}
}

// Add appends value to key's value list.
func (h Header) Add(key, value string) {
	h[key] = append(h[key], value)
}

// GetFold is Get with case-insensitive key matching, for callers that did
// not set the header themselves and so cannot assume its wire casing (e.g.
// the engine inspecting a client-supplied Connection header).
func (h Header) GetFold(key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	for k, v := range h {
		if len(v) > 0 && strings.EqualFold(k, key) {
			return v[0]
		}
	}
	return ""
}

// Request is the materialized view of a fully-parsed HTTP request handed to
// an Executor. Body is always raw bytes: for a binary Content-Type the wire
// body is expected base64-encoded and the engine decodes it before handing
// it to the Executor; IsBase64Encoded then just reports that the Content-Type
// was judged binary, it does not change Body's representation.
type Request struct {
	Method          string
	Path            string
	Query           string
	Proto           string
	Headers         Header
	Body            []byte
	IsBase64Encoded bool

	// RemoteAddr is the textual peer address, IPv4 clients reported in
	// their v4-mapped-v6 form per the listening socket convention.
	RemoteAddr string
}

// Response is what an Executor returns for the engine to serialize back
// onto the connection. A zero-value StatusCode is treated as 200.
type Response struct {
	StatusCode      int
	Headers         Header
	Body            []byte
	IsBase64Encoded bool

	// KeepAlive, when explicitly set by the executor, overrides the
	// engine's own keep-alive negotiation derived from the request's
	// Connection header and protocol version.
	KeepAlive *bool
}

// NewResponse builds a Response with an initialized Headers map.
func NewResponse(status int, body []byte) Response {
	return Response{
		StatusCode: status,
		Headers:    make(Header),
		Body:       body,
	}
}

/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package server

import (
	"context"
	"net"
	"strings"
	"time"
)

const portProbeTimeout = 500 * time.Millisecond

// dialableAddress rewrites a wildcard bind address ("0.0.0.0:8080",
// ":::8080") into a loopback address a client can actually dial, for
// probing whether the port is already bound.
func dialableAddress(listen string) string {
	part := strings.Split(listen, ":")
	if len(part) < 2 {
		return listen
	}

	port := part[len(part)-1]
	addr := strings.Join(part[:len(part)-1], ":")

	if addr == "" || strings.HasPrefix(addr, "0") || strings.HasPrefix(addr, "::") {
		return "127.0.0.1:" + port
	}

	return listen
}

// PortInUse reports whether something is already listening on cfg.Listen,
// by attempting a short-lived TCP dial against it. Meant as a preflight
// check before Server.Start, not a substitute for handling the bind error
// libsck.Listen itself may return.
func PortInUse(ctx context.Context, listen string) bool {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, portProbeTimeout)
		defer cancel()
	}

	dia := net.Dialer{}
	con, err := dia.DialContext(ctx, "tcp", dialableAddress(listen))
	if err != nil {
		return false
	}

	_ = con.Close()
	return true
}

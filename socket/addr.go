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

package socket

import (
	"net"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// splitHostPort separates "host:port" into host and numeric port, tolerating
// an empty host (wildcard bind).
func splitHostPort(address string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, ErrorAddressParse.Error(err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, ErrorAddressParse.Error(err)
	}

	return host, uint16(port), nil
}

// toV4MappedV6 encodes an IPv4 address as an IPv4-mapped IPv6 address
// (::ffff:a.b.c.d) so it can be used in a SockaddrInet6 on a dual-stack
// socket.
func toV4MappedV6(ip net.IP) [16]byte {
	var out [16]byte

	v4 := ip.To4()
	if v4 == nil {
		copy(out[:], ip.To16())
		return out
	}

	out[10] = 0xff
	out[11] = 0xff
	out[12] = v4[0]
	out[13] = v4[1]
	out[14] = v4[2]
	out[15] = v4[3]

	return out
}

// sockaddrFromHost builds the unix.SockaddrInet6 used to bind the listening
// socket. An empty/wildcard host binds in6addr_any, which on a socket with
// IPV6_V6ONLY disabled also accepts IPv4 connections encoded as v4-mapped
// addresses.
func sockaddrFromHost(host string, port uint16) (*unix.SockaddrInet6, error) {
	sa := &unix.SockaddrInet6{Port: int(port)}

	if host == "" || host == "0.0.0.0" || host == "::" {
		return sa, nil
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, ErrorAddressParse.Error(nil)
	}

	sa.Addr = toV4MappedV6(ip)
	return sa, nil
}

// PeerAddr renders a peer's raw socket address (as returned by accept(2))
// back into a "host:port" string. An IPv4 peer reaching the dual-stack
// socket keeps its v4-mapped form, e.g. "[::ffff:192.0.2.1]:443".
func PeerAddr(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		ip := net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3])
		return net.JoinHostPort(ip.String(), strconv.Itoa(addr.Port))
	case *unix.SockaddrInet6:
		ip := net.IP(addr.Addr[:])
		if v4 := ip.To4(); v4 != nil {
			return net.JoinHostPort("::ffff:"+v4.String(), strconv.Itoa(addr.Port))
		}
		return net.JoinHostPort(ip.String(), strconv.Itoa(addr.Port))
	default:
		return ""
	}
}

// IsWildcard reports whether the given host string denotes a wildcard
// bind address understood by sockaddrFromHost.
func IsWildcard(host string) bool {
	host = strings.TrimSpace(host)
	return host == "" || host == "0.0.0.0" || host == "::"
}

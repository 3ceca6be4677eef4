package utils

import (
	"net"
	"net/http"
	"strings"
)

// RemoteHost returns the host part of r.RemoteAddr. If RemoteAddr carries no
// port it is returned unchanged.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP extracts the client IP for rate limiting. Without trustForwarded
// it is the connection address. With it, the leftmost valid X-Forwarded-For
// entry ("client, proxy1, proxy2") wins, then X-Real-IP, then the connection
// address. Only trust forwarded headers behind a proxy that overwrites them.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if !trustForwarded {
		return RemoteHost(r)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return RemoteHost(r)
}

// LocalPort returns the port of the listener that accepted r, or "" when the
// server did not record it (httptest requests, for example).
func LocalPort(r *http.Request) string {
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return port
}

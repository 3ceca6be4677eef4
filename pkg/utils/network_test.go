package utils

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteHost(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:1234", "192.168.1.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"10.0.0.1", "10.0.0.1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := RemoteHost(req); got != tt.want {
				t.Errorf("RemoteHost() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr only", true, nil, "192.168.1.1:1234", "192.168.1.1"},
		{"x-forwarded-for leftmost", true, map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"invalid x-forwarded-for falls through", true, map[string]string{"X-Forwarded-For": "garbage"}, "10.0.0.2:80", "10.0.0.2"},
		{"x-real-ip", true, map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
		{"untrusted x-forwarded-for ignored", false, map[string]string{"X-Forwarded-For": "203.0.113.5"}, "10.0.0.1:80", "10.0.0.1"},
		{"untrusted x-real-ip ignored", false, map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestLocalPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := LocalPort(req); got != "" {
		t.Errorf("LocalPort() without listener = %q; want empty", got)
	}

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8443}
	req = req.WithContext(context.WithValue(req.Context(), http.LocalAddrContextKey, addr))
	if got := LocalPort(req); got != "8443" {
		t.Errorf("LocalPort() = %q; want 8443", got)
	}
}

// Package notfound records requests that resolved to no resource and renders
// the recorded log. Only the latest hit per canonical URL is kept.
package notfound

import "context"

// Meta is the request metadata a host hands over for one not-found event.
// Values are taken as the host reports them; nothing is read from ambient
// process state.
type Meta struct {
	Secure        bool   // request arrived over TLS
	Protocol      string // e.g. "HTTP/1.1"
	ServerPort    string // port of the accepting listener
	Host          string // Host header
	ForwardedHost string // X-Forwarded-Host header
	ServerName    string // configured server name, used when Host is empty
	RequestURI    string // raw path and query
	ClientAddress string // textual client IP
	RequestTime   string // seconds since epoch
}

// Hook receives not-found events from the host. Implementations must not
// fail the request that triggered them.
type Hook interface {
	NotFound(ctx context.Context, meta Meta)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, meta Meta)

// NotFound calls f.
func (f HookFunc) NotFound(ctx context.Context, meta Meta) {
	f(ctx, meta)
}

// Package site serves the public static site and reports requests that end
// in a 404 to a notfound.Hook.
package site

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pandeptwidyaop/simple404/internal/notfound"
	"github.com/pandeptwidyaop/simple404/pkg/utils"
)

// MetaFromRequest collects the not-found metadata for r. The client address
// is the connection peer; forwarded-for headers are not consulted.
func MetaFromRequest(r *http.Request, now time.Time, serverName string) notfound.Meta {
	secure := r.TLS != nil

	port := utils.LocalPort(r)
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}

	uri := r.RequestURI
	if uri == "" && r.URL != nil {
		uri = r.URL.RequestURI()
	}

	return notfound.Meta{
		Secure:        secure,
		Protocol:      r.Proto,
		ServerPort:    port,
		Host:          r.Host,
		ForwardedHost: r.Header.Get("X-Forwarded-Host"),
		ServerName:    serverName,
		RequestURI:    uri,
		ClientAddress: utils.RemoteHost(r),
		RequestTime:   strconv.FormatInt(now.Unix(), 10),
	}
}

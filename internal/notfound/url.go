package notfound

import (
	"net"
	"net/url"
	"strings"
)

// unsafeURLBytes are printable ASCII bytes that are never stored raw.
const unsafeURLBytes = "\"<>\\^`{|}"

const upperhex = "0123456789ABCDEF"

// CanonicalURL builds the absolute URL used as the log key:
// protocol://host[:port] followed by the raw request URI, escaped with
// EscapeURL.
func CanonicalURL(m Meta, trustForwardedHost bool) string {
	return EscapeURL(protocolToken(m) + "://" + originHost(m, trustForwardedHost) + m.RequestURI)
}

// protocolToken lowercases the protocol name up to its version separator
// and appends "s" for secure requests. "HTTP/1.1" becomes "http" or "https".
func protocolToken(m Meta) string {
	p := strings.ToLower(strings.TrimSpace(m.Protocol))
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		p = "http"
	}
	if m.Secure {
		p += "s"
	}
	return p
}

func originHost(m Meta, trustForwardedHost bool) string {
	if trustForwardedHost {
		// a proxy chain appends hosts; the first is the client-facing one
		first, _, _ := strings.Cut(m.ForwardedHost, ",")
		if fh := strings.TrimSpace(first); fh != "" {
			return fh
		}
	}

	host := strings.TrimSpace(m.Host)
	if host == "" {
		host = strings.TrimSpace(m.ServerName)
	}
	if host == "" {
		return ""
	}

	port := strings.TrimSpace(m.ServerPort)
	if port == "" || isDefaultPort(port, m.Secure) || hasPort(host) {
		return host
	}
	return host + ":" + port
}

func isDefaultPort(port string, secure bool) bool {
	if secure {
		return port == "443"
	}
	return port == "80"
}

func hasPort(host string) bool {
	_, _, err := net.SplitHostPort(host)
	return err == nil
}

// EscapeURL percent-encodes control characters, space, non-ASCII bytes and
// the characters in unsafeURLBytes. A '%' that does not start a valid %XX
// triplet becomes %25. Valid triplets are kept, so EscapeURL is idempotent.
func EscapeURL(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '%':
			if i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]) {
				b.WriteByte(c)
			} else {
				b.WriteString("%25")
			}
		case c <= ' ' || c >= 0x7f || strings.IndexByte(unsafeURLBytes, c) >= 0:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// SafeURL re-validates a stored URL before it is shown. Anything that is not
// an http or https URL after escaping is dropped.
func SafeURL(stored string) string {
	escaped := EscapeURL(stored)
	u, err := url.Parse(escaped)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return escaped
	default:
		return ""
	}
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// DefaultKeyFunc compõe <namespace>:path=<path>:ip=<addr>.
//
// Rotas ou endereços diferentes nunca colidem; o mesmo par (path, endereço) sempre colide.
func DefaultKeyFunc(namespace, proxyHeader string) KeyFunc {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return func(r *http.Request) (string, error) {
		return namespace + ":path=" + requestPath(r) + ":ip=" + ClientAddr(r, proxyHeader), nil
	}
}

// ClientAddr devolve o primeiro valor não vazio entre: header de proxy confiável,
// primeiro IP do X-Forwarded-For (cliente original) e o host do RemoteAddr.
func ClientAddr(r *http.Request, proxyHeader string) string {
	if proxyHeader == "" {
		proxyHeader = DefaultProxyHeader
	}
	if v := strings.TrimSpace(r.Header.Get(proxyHeader)); v != "" {
		return v
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// fallback: RemoteAddr
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// requestPath ignora a query string.
func requestPath(r *http.Request) string {
	if r.URL == nil || r.URL.Path == "" {
		return "/"
	}
	return r.URL.Path
}

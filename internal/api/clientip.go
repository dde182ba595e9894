package api

import (
	"net"
	"net/http"
	"strings"
)

// clientIP extracts the client IP address for rate-limit keying. When
// TrustProxy is set, X-Forwarded-For (first entry) and X-Real-IP are checked
// before falling back to RemoteAddr. Only enable TrustProxy behind a trusted
// reverse proxy, otherwise clients mint their own keys.
func (s *Server) clientIP(r *http.Request) string {
	if s.cfg.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.IndexByte(xff, ','); i > 0 {
				xff = xff[:i]
			}
			if ip := strings.TrimSpace(xff); ip != "" {
				return ip
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package observability

import (
	"net"
	"net/http"
	"strings"
)

const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderRequestID = "X-Request-Id"
)

func DeviceIDFromRequest(r *http.Request) string {
	return r.Header.Get(HeaderDeviceID)
}

func RequestIDFromRequest(r *http.Request) string {
	return r.Header.Get(HeaderRequestID)
}

// IPFromRequest prefers the first X-Forwarded-For hop over the socket address.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Package security hardens API responses and flags hostile request shapes.
package security

import (
	"log/slog"
	"net/http"
	"strings"
)

// Headers applies response headers appropriate for a JSON API that never
// serves markup.
func Headers() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

var probePatterns = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "etc/passwd",
	"<script", "union select",
}

// SuspiciousRequest reports whether the request path or query matches a
// known probe pattern. Callers decide what to do with a hit; logging a
// warning is the usual response.
func SuspiciousRequest(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, pattern := range probePatterns {
		if strings.Contains(target, pattern) {
			return true
		}
	}
	return len(r.URL.String()) > 2048
}

// ProbeLogger warns on requests that look like vulnerability scans without
// blocking them; false positives are cheap, silent drops are not.
func ProbeLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SuspiciousRequest(r) {
				slog.WarnContext(r.Context(), "Suspicious request pattern",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import "net/http"

// SecurityConfig controls the security header middleware.
type SecurityConfig struct {
	// IsDevelopment disables HSTS so local HTTP setups keep working.
	IsDevelopment bool
}

// Security returns a middleware that applies baseline security headers
// to every response. The API serves JSON only, so the CSP denies all
// content and framing; embeddable share pages are rendered by the
// frontend, not this server.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			w.Header().Set("Cache-Control", "no-store")

			if !cfg.IsDevelopment {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize returns a middleware that caps request body size. Bodies
// that declare a larger Content-Length are rejected up front; chunked
// bodies are capped by http.MaxBytesReader, so handler reads fail once
// the limit is crossed. Zone flush payloads are the largest legitimate
// bodies and stay well under the default 1MB.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"Request body too large","code":"PAYLOAD_TOO_LARGE"}`))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

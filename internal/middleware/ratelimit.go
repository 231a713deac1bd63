package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zonemap/zonemap/internal/cache"
)

// RateLimitConfig holds configuration for the rate limiting middleware.
type RateLimitConfig struct {
	Logger *slog.Logger
	Cache  *cache.Cache

	// Login rate limiting (per IP), protects the credential probe.
	LoginEnabled bool
	LoginRPS     int
	LoginBurst   int

	// Share rate limiting (per IP), protects map code resolution.
	ShareEnabled bool
	ShareRPS     int
	ShareBurst   int
}

// RateLimitLogin returns middleware that rate limits login attempts per IP.
func RateLimitLogin(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.LoginEnabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			result, err := cfg.Cache.CheckLoginRateLimit(r.Context(), ip, cfg.LoginRPS, cfg.LoginBurst)
			if err != nil {
				cfg.Logger.Error("login rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				denyRateLimited(w, r, cfg.Logger, "login", ip, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitShare returns middleware that rate limits shared map resolution
// per IP.
func RateLimitShare(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.ShareEnabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			result, err := cfg.Cache.CheckShareRateLimit(r.Context(), ip, cfg.ShareRPS, cfg.ShareBurst)
			if err != nil {
				cfg.Logger.Error("share rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				denyRateLimited(w, r, cfg.Logger, "share", ip, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// denyRateLimited logs and writes a 429 Too Many Requests response.
func denyRateLimited(w http.ResponseWriter, r *http.Request, logger *slog.Logger, kind, ip string, retryAfter time.Duration) {
	logger.Warn("rate limit exceeded",
		slog.String("type", kind),
		slog.String("ip", ip),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int64("retry_after_seconds", int64(retryAfter.Seconds())),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"rate limit exceeded","code":"RATE_LIMITED"}`))
}

// getClientIP extracts the client IP, honoring proxy headers.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// First entry is the client IP.
		for i := range xff {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

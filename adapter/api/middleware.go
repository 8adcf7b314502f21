package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/spabook/pkg/observability"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Request headers carrying trace identifiers.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderAdminKey      = "X-Admin-Key"
)

// requestContext stores request and correlation ids in the context and
// echoes them on the response.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), r.Header.Get(HeaderRequestID))
		ctx = observability.WithCorrelationID(ctx, r.Header.Get(HeaderCorrelationID))

		w.Header().Set(HeaderRequestID, observability.RequestIDFromContext(ctx))
		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs one line per request.
func accessLog(logger *slog.Logger, metrics observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.Timing(observability.MetricHTTPRequest, elapsed,
				observability.T("method", r.Method),
				observability.T("status", strconv.Itoa(status)),
			)

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				observability.DurationKey, elapsed.Milliseconds(),
			)
		})
	}
}

// adminAuth admits requests carrying the static admin key or a bearer
// token with the admin role. The acting principal is stored in the context.
func adminAuth(adminKey string, tokens *TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && tokens == nil {
				writeError(w, r, logger, &APIError{
					Status:  http.StatusServiceUnavailable,
					Code:    "admin_auth_disabled",
					Message: "autenticación de administrador no configurada",
				})
				return
			}

			if key := r.Header.Get(HeaderAdminKey); adminKey != "" && key != "" &&
				subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1 {
				ctx := observability.WithActor(r.Context(), "admin:key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if tokens != nil {
				if raw, ok := bearerToken(r); ok {
					claims, err := tokens.Parse(raw)
					if err == nil && claims.Role == RoleAdmin {
						ctx := observability.WithActor(r.Context(), "admin:"+claims.Subject)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
					logger.WarnContext(r.Context(), "rejected admin token", "error", err)
				}
			}

			writeError(w, r, logger, ErrUnauthorized)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

package httpx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightforge/portal/internal/metrics"
	"github.com/brightforge/portal/internal/observability/logger"
	"github.com/brightforge/portal/internal/store/core"
)

// Middleware es un decorador de http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain aplica middlewares de izquierda a derecha: el primero de la lista
// es el más externo.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ---- request id ----

// WithRequestID propaga X-Request-ID del cliente o genera uno nuevo, y
// cuelga un logger scoped del contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" {
				var b [16]byte
				_, _ = rand.Read(b[:])
				rid = hex.EncodeToString(b[:])
			}
			w.Header().Set("X-Request-ID", rid)
			ctx := logger.ToContext(r.Context(), logger.L().With(zap.String("request_id", rid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ---- access log + métricas ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func WithAccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			dur := time.Since(start)
			logger.From(r.Context()).Sugar().Infow("http_request",
				"method", r.Method, "path", r.URL.Path, "status", sw.status, "duration_ms", dur.Milliseconds())
			metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path).Observe(dur.Seconds())
		})
	}
}

// ---- principal en contexto ----

type principalKey struct{}

func WithPrincipal(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// Principal devuelve el usuario autenticado del contexto, o nil.
func Principal(ctx context.Context) *core.User {
	u, _ := ctx.Value(principalKey{}).(*core.User)
	return u
}

// SessionResolver resuelve el request a un principal id (cookie de sesión).
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (string, error)
}

// UserLoader recarga el principal completo a partir del id.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*core.User, error)
}

// RequireSession resuelve la cookie a un principal id y recarga el usuario:
// dos pasos explícitos (session store + repo) en lugar de callbacks estilo
// framework. Sin sesión válida responde 401.
func RequireSession(sessions SessionResolver, users UserLoader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principalID, err := sessions.Resolve(ctx, r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "sesión inexistente o vencida")
				return
			}
			u, err := users.GetUserByID(ctx, principalID)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "sesión inexistente o vencida")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, u)))
		})
	}
}

// RequireRole exige match EXACTO de rol. Modelo plano de dos roles: no hay
// jerarquía, admin no pasa por client ni al revés. Usar después de
// RequireSession.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := Principal(r.Context())
			if u == nil {
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "sesión requerida")
				return
			}
			if u.Role != role {
				WriteError(w, http.StatusForbidden, "forbidden", "rol insuficiente")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

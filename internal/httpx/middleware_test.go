package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brightforge/portal/internal/store/core"
)

type stubSessions struct {
	principalID string
	err         error
}

func (s stubSessions) Resolve(context.Context, *http.Request) (string, error) {
	return s.principalID, s.err
}

type stubUsers struct{ u *core.User }

func (s stubUsers) GetUserByID(context.Context, string) (*core.User, error) {
	if s.u == nil {
		return nil, core.ErrNotFound
	}
	return s.u, nil
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	inner, _ := okHandler()
	h := Chain(inner, mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("orden de chain: %v", order)
	}
}

func TestWithRequestIDPropagates(t *testing.T) {
	inner, _ := okHandler()
	h := Chain(inner, WithRequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "rid-123" {
		t.Fatalf("request id no propagado: %q", got)
	}

	// sin header entrante genera uno
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id no generado")
	}
}

func TestRequireSession(t *testing.T) {
	u := &core.User{ID: "u1", Username: "alice", Role: core.RoleClient}

	inner, called := okHandler()
	h := RequireSession(stubSessions{principalID: "u1"}, stubUsers{u: u})(inner)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !*called {
		t.Fatalf("sesión válida: status %d, called %v", rec.Code, *called)
	}

	inner, called = okHandler()
	h = RequireSession(stubSessions{err: errors.New("no cookie")}, stubUsers{u: u})(inner)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || *called {
		t.Fatalf("sin sesión: status %d, called %v", rec.Code, *called)
	}

	// sesión resuelve pero el usuario ya no existe
	inner, called = okHandler()
	h = RequireSession(stubSessions{principalID: "gone"}, stubUsers{})(inner)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || *called {
		t.Fatalf("usuario inexistente: status %d, called %v", rec.Code, *called)
	}
}

func TestRequireRoleExactMatch(t *testing.T) {
	cases := []struct {
		name      string
		principal *core.User
		role      string
		want      int
	}{
		{"admin en ruta admin", &core.User{Role: core.RoleAdmin}, core.RoleAdmin, http.StatusOK},
		{"client en ruta admin", &core.User{Role: core.RoleClient}, core.RoleAdmin, http.StatusForbidden},
		// el match es exacto: admin NO pasa por ruta client
		{"admin en ruta client", &core.User{Role: core.RoleAdmin}, core.RoleClient, http.StatusForbidden},
		{"sin principal", nil, core.RoleAdmin, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inner, _ := okHandler()
			h := RequireRole(tc.role)(inner)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tc.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

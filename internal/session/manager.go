package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/brightforge/portal/internal/observability/logger"
)

type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string // "", "lax", "strict", "none"
	Secure   bool
}

// Manager junta el Store con la política de cookies. Una instancia por
// proceso, inyectada explícitamente en los handlers.
type Manager struct {
	store  Store
	cookie CookieConfig
	ttl    time.Duration
}

func NewManager(store Store, cookie CookieConfig, ttl time.Duration) *Manager {
	if cookie.Name == "" {
		cookie.Name = "portal_session"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{store: store, cookie: cookie, ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Login crea la sesión y setea la cookie en la respuesta.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, principalID string) error {
	tok, err := m.store.Create(ctx, principalID, m.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.buildCookie(tok, m.ttl))
	return nil
}

// Resolve obtiene el principal id de la cookie del request.
// Devuelve ErrNotFound si no hay cookie o la sesión no existe/expiró.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (string, error) {
	ck, err := r.Cookie(m.cookie.Name)
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return "", ErrNotFound
	}
	return m.store.Resolve(ctx, ck.Value)
}

// Logout destruye la sesión server-side y borra la cookie client-side.
// Idempotente: sin cookie no hace nada.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ck, err := r.Cookie(m.cookie.Name)
	if err == nil && strings.TrimSpace(ck.Value) != "" {
		if err := m.store.Destroy(ctx, ck.Value); err != nil {
			return err
		}
	}
	http.SetCookie(w, m.deletionCookie())
	return nil
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		logger.S().Warnw("cookie_samesite_desconocido", "value", s)
		return http.SameSiteLaxMode
	}
}

func (m *Manager) buildCookie(value string, ttl time.Duration) *http.Cookie {
	ss := parseSameSite(m.cookie.SameSite)
	if ss == http.SameSiteNoneMode && !m.cookie.Secure {
		// Algunos navegadores rechazan SameSite=None sin Secure.
		logger.S().Warnw("cookie_samesite_none_sin_secure", "domain", m.cookie.Domain)
	}
	c := &http.Cookie{
		Name:     m.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().UTC().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: ss,
	}
	if m.cookie.Domain != "" {
		c.Domain = m.cookie.Domain
	}
	return c
}

func (m *Manager) deletionCookie() *http.Cookie {
	c := &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(m.cookie.SameSite),
	}
	if m.cookie.Domain != "" {
		c.Domain = m.cookie.Domain
	}
	return c
}

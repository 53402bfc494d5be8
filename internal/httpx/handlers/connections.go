package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/brightforge/portal/internal/freshbooks"
	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

const oauthStateCookie = "portal_oauth_state"

// connectionStatus es la vista redactada de una conexión: nunca expone tokens.
type connectionStatus struct {
	Provider  string     `json:"provider"`
	Connected bool       `json:"connected"`
	AccountID string     `json:"account_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func NewConnectionStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := d.Freshbooks.Connection(r.Context())
		if err != nil {
			if errors.Is(err, freshbooks.ErrNotConnected) {
				httpx.WriteJSON(w, http.StatusOK, connectionStatus{Provider: freshbooks.Provider})
				return
			}
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, connectionStatus{
			Provider:  conn.Provider,
			Connected: conn.RefreshToken != "",
			AccountID: conn.AccountID,
			ExpiresAt: &conn.ExpiresAt,
			UpdatedAt: &conn.UpdatedAt,
		})
	}
}

type connectionEditRequest struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	AccountID    *string `json:"account_id"`
}

// NewConnectionEditHandler permite retocar campos del credential a mano,
// típicamente para pegarse un token sacado del dashboard del proveedor.
func NewConnectionEditHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectionEditRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		conn, err := d.Repo.GetAPIConnection(r.Context(), freshbooks.Provider)
		if errors.Is(err, core.ErrNotFound) {
			conn = &core.APIConnection{Provider: freshbooks.Provider}
		} else if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		if req.AccessToken != nil {
			conn.AccessToken = *req.AccessToken
			// Un access token pegado a mano no trae expiry; se marca como
			// vencido para forzar un refresh en el próximo uso.
			conn.ExpiresAt = time.Now().UTC()
		}
		if req.RefreshToken != nil {
			conn.RefreshToken = *req.RefreshToken
		}
		if req.AccountID != nil {
			conn.AccountID = *req.AccountID
		}
		if err := d.Repo.UpsertAPIConnection(r.Context(), conn); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "connection_edit", "credencial freshbooks editada", "api_connection", freshbooks.Provider)
		httpx.WriteJSON(w, http.StatusOK, connectionStatus{
			Provider:  conn.Provider,
			Connected: conn.RefreshToken != "",
			AccountID: conn.AccountID,
			ExpiresAt: &conn.ExpiresAt,
			UpdatedAt: &conn.UpdatedAt,
		})
	}
}

func NewFreshbooksConnectHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := newOAuthState()
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, d.Freshbooks.AuthorizationURL(state), http.StatusFound)
	}
}

func NewFreshbooksCallbackHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "falta el parámetro code")
			return
		}
		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(r.URL.Query().Get("state"))) != 1 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_state", "state no coincide")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

		conn, err := d.Freshbooks.ExchangeCode(r.Context(), code)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "connection_authorize", "freshbooks autorizado, cuenta "+conn.AccountID, "api_connection", freshbooks.Provider)
		httpx.WriteJSON(w, http.StatusOK, connectionStatus{
			Provider:  conn.Provider,
			Connected: true,
			AccountID: conn.AccountID,
			ExpiresAt: &conn.ExpiresAt,
			UpdatedAt: &conn.UpdatedAt,
		})
	}
}

func NewFreshbooksSyncHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Freshbooks.SyncAll(r.Context()); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "freshbooks_sync", "sincronización completa", "api_connection", freshbooks.Provider)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func newOAuthState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

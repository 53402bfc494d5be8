package handlers

import (
	"net/http"
	"strings"

	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewRegisterHandler crea el usuario y lo deja logueado (auto-login).
// El registro público siempre produce rol client; las cuentas admin
// salen del comando seed.
func NewRegisterHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}

		u, err := d.Auth.Register(r.Context(), auth.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     core.RoleClient,
		})
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		if err := d.Sessions.Login(r.Context(), w, u.ID); err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		d.Audit.Record(r.Context(), u.ID, "register", "usuario registrado: "+u.Username, "user", u.ID)
		httpx.WriteJSON(w, http.StatusCreated, u)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewLoginHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)

		u, err := d.Auth.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		if err := d.Sessions.Login(r.Context(), w, u.ID); err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		d.Audit.Record(r.Context(), u.ID, "login", "sesión iniciada", "user", u.ID)
		httpx.WriteJSON(w, http.StatusOK, u)
	}
}

func NewLogoutHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		if err := d.Sessions.Logout(r.Context(), w, r); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		if u != nil {
			d.Audit.Record(r.Context(), u.ID, "logout", "sesión cerrada", "user", u.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewMeHandler devuelve el principal actual. El password hash nunca se
// serializa (json:"-" en el tipo).
func NewMeHandler(Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		if u == nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "sesión requerida")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u)
	}
}

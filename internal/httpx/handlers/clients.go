package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

// ownClientID devuelve el client id del principal cuando su rol es client.
// Admin ve todo; client solo su propio registro y los recursos colgados.
func ownClientID(u *core.User) (string, bool) {
	if u == nil || u.Role != core.RoleClient {
		return "", false
	}
	if u.ClientID == nil {
		return "", true // cuenta client sin cliente asociado: no ve nada
	}
	return *u.ClientID, true
}

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

func NewClientCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clientRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "name es requerido")
			return
		}
		c := &core.Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Company: req.Company, Notes: req.Notes}
		if err := d.Repo.CreateClient(r.Context(), c); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "client_create", "cliente creado: "+c.Name, "client", c.ID)
		httpx.WriteJSON(w, http.StatusCreated, c)
	}
}

func NewClientListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		if own, limited := ownClientID(u); limited {
			if own == "" {
				httpx.WriteJSON(w, http.StatusOK, []*core.Client{})
				return
			}
			c, err := d.Repo.GetClient(r.Context(), own)
			if err != nil {
				httpx.HandleError(w, r, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, []*core.Client{c})
			return
		}
		out, err := d.Repo.ListClients(r.Context())
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewClientGetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		u := httpx.Principal(r.Context())
		if own, limited := ownClientID(u); limited && own != id {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "solo el propio cliente")
			return
		}
		c, err := d.Repo.GetClient(r.Context(), id)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

func NewClientUpdateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Repo.GetClient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		var req clientRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Name != "" {
			c.Name = req.Name
		}
		if req.Email != "" {
			c.Email = req.Email
		}
		c.Phone, c.Company, c.Notes = req.Phone, req.Company, req.Notes
		if err := d.Repo.UpdateClient(r.Context(), c); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "client_update", "cliente actualizado: "+c.Name, "client", c.ID)
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

func NewClientDeleteHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Repo.DeleteClient(r.Context(), id); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "client_delete", "cliente eliminado", "client", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

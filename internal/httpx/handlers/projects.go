package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type projectRequest struct {
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func NewProjectCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" || req.ClientID == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "name y client_id son requeridos")
			return
		}
		// El client padre tiene que existir.
		if _, err := d.Repo.GetClient(r.Context(), req.ClientID); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		status := req.Status
		if status == "" {
			status = "active"
		}
		p := &core.Project{ClientID: req.ClientID, Name: req.Name, Description: req.Description, Status: status}
		if err := d.Repo.CreateProject(r.Context(), p); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "project_create", "proyecto creado: "+p.Name, "project", p.ID)
		httpx.WriteJSON(w, http.StatusCreated, p)
	}
}

func NewProjectListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		clientID := r.URL.Query().Get("client_id")
		if own, limited := ownClientID(u); limited {
			if own == "" {
				httpx.WriteJSON(w, http.StatusOK, []*core.Project{})
				return
			}
			clientID = own
		}
		out, err := d.Repo.ListProjects(r.Context(), clientID)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewProjectGetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Repo.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		u := httpx.Principal(r.Context())
		if own, limited := ownClientID(u); limited && own != p.ClientID {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "proyecto de otro cliente")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func NewProjectUpdateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Repo.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		var req projectRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Name != "" {
			p.Name = req.Name
		}
		if req.Status != "" {
			p.Status = req.Status
		}
		p.Description = req.Description
		if err := d.Repo.UpdateProject(r.Context(), p); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "project_update", "proyecto actualizado: "+p.Name, "project", p.ID)
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func NewProjectDeleteHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Repo.DeleteProject(r.Context(), id); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "project_delete", "proyecto eliminado", "project", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type documentRequest struct {
	ClientID  string  `json:"client_id"`
	ProjectID *string `json:"project_id"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
}

func NewDocumentCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req documentRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.ClientID == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "client_id, name y url son requeridos")
			return
		}
		if _, err := d.Repo.GetClient(r.Context(), req.ClientID); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		doc := &core.Document{
			ClientID:   req.ClientID,
			ProjectID:  req.ProjectID,
			Name:       req.Name,
			URL:        req.URL,
			UploadedBy: actor.ID,
		}
		if err := d.Repo.CreateDocument(r.Context(), doc); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		d.Audit.Record(r.Context(), actor.ID, "document_create", "documento subido: "+doc.Name, "document", doc.ID)
		httpx.WriteJSON(w, http.StatusCreated, doc)
	}
}

func NewDocumentListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		clientID := r.URL.Query().Get("client_id")
		if own, limited := ownClientID(u); limited {
			if own == "" {
				httpx.WriteJSON(w, http.StatusOK, []*core.Document{})
				return
			}
			clientID = own
		}
		out, err := d.Repo.ListDocuments(r.Context(), clientID)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewDocumentDeleteHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Repo.DeleteDocument(r.Context(), id); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "document_delete", "documento eliminado", "document", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

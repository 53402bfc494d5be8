package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type contentRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	SortOrder int    `json:"sort_order"`
}

// NewContentListHandler es público: el sitio de marketing lee los bloques sin sesión.
func NewContentListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Repo.ListContentBlocks(r.Context())
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewContentGetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Repo.GetContentBlock(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, b)
	}
}

func NewContentUpsertHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if strings.TrimSpace(key) == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "key requerido")
			return
		}
		var req contentRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		actor := httpx.Principal(r.Context())
		b := &core.ContentBlock{
			Key:       key,
			Title:     req.Title,
			Body:      req.Body,
			SortOrder: req.SortOrder,
			UpdatedBy: actor.ID,
		}
		if err := d.Repo.UpsertContentBlock(r.Context(), b); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		d.Audit.Record(r.Context(), actor.ID, "content_update", "bloque actualizado: "+key, "content_block", key)
		httpx.WriteJSON(w, http.StatusOK, b)
	}
}

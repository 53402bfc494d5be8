package handlers

import (
	"net/http"
	"strconv"

	"github.com/brightforge/portal/internal/httpx"
)

const defaultActivityLimit = 50

func NewActivityListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultActivityLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}
		out, err := d.Repo.ListActivity(r.Context(), limit)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

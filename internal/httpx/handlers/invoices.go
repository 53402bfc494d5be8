package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type invoiceRequest struct {
	ClientID    string  `json:"client_id"`
	ProjectID   *string `json:"project_id"`
	Number      string  `json:"number"`
	AmountCents int64   `json:"amount_cents"`
	Status      string  `json:"status"`
	DueDate     string  `json:"due_date"` // "2006-01-02"
}

func validInvoiceStatus(s string) bool {
	switch s {
	case core.InvoicePending, core.InvoicePaid, core.InvoiceOverdue:
		return true
	}
	return false
}

func NewInvoiceCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invoiceRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.ClientID == "" || req.Number == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "client_id y number son requeridos")
			return
		}
		if _, err := d.Repo.GetClient(r.Context(), req.ClientID); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		status := req.Status
		if status == "" {
			status = core.InvoicePending
		}
		if !validInvoiceStatus(status) {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "status desconocido")
			return
		}

		var due *time.Time
		if req.DueDate != "" {
			t, err := time.Parse("2006-01-02", req.DueDate)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "due_date inválida")
				return
			}
			due = &t
		}

		inv := &core.Invoice{
			ClientID:    req.ClientID,
			ProjectID:   req.ProjectID,
			Number:      req.Number,
			AmountCents: req.AmountCents,
			Status:      status,
			DueDate:     due,
		}
		if err := d.Repo.CreateInvoice(r.Context(), inv); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "invoice_create", "factura creada: "+inv.Number, "invoice", inv.ID)
		httpx.WriteJSON(w, http.StatusCreated, inv)
	}
}

func NewInvoiceListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		clientID := r.URL.Query().Get("client_id")
		if own, limited := ownClientID(u); limited {
			if own == "" {
				httpx.WriteJSON(w, http.StatusOK, []*core.Invoice{})
				return
			}
			clientID = own
		}
		out, err := d.Repo.ListInvoices(r.Context(), clientID)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewInvoiceGetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := d.Repo.GetInvoice(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		u := httpx.Principal(r.Context())
		if own, limited := ownClientID(u); limited && own != inv.ClientID {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "factura de otro cliente")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, inv)
	}
}

func NewInvoiceUpdateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := d.Repo.GetInvoice(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		var req invoiceRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Number != "" {
			inv.Number = req.Number
		}
		if req.AmountCents != 0 {
			inv.AmountCents = req.AmountCents
		}
		if req.Status != "" {
			if !validInvoiceStatus(req.Status) {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "status desconocido")
				return
			}
			inv.Status = req.Status
		}
		if req.DueDate != "" {
			t, err := time.Parse("2006-01-02", req.DueDate)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "due_date inválida")
				return
			}
			inv.DueDate = &t
		}
		if err := d.Repo.UpdateInvoice(r.Context(), inv); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "invoice_update", "factura actualizada: "+inv.Number, "invoice", inv.ID)
		httpx.WriteJSON(w, http.StatusOK, inv)
	}
}

func NewInvoiceDeleteHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Repo.DeleteInvoice(r.Context(), id); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		actor := httpx.Principal(r.Context())
		d.Audit.Record(r.Context(), actor.ID, "invoice_delete", "factura eliminada", "invoice", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

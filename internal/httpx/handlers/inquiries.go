package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type inquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// NewInquiryCreateHandler es el intake público del sitio de marketing.
func NewInquiryCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inquiryRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" || !strings.Contains(req.Email, "@") {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "name y email son requeridos")
			return
		}

		q := &core.Inquiry{
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.ToLower(strings.TrimSpace(req.Email)),
			Company: strings.TrimSpace(req.Company),
			Message: req.Message,
			Status:  core.InquiryNew,
		}
		if err := d.Repo.CreateInquiry(r.Context(), q); err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		d.Email.NotifyInquiry(q.Name, q.Email, q.Company, q.Message)
		httpx.WriteJSON(w, http.StatusCreated, q)
	}
}

func NewInquiryListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Repo.ListInquiries(r.Context())
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewInquiryUpdateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := d.Repo.GetInquiry(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		var req struct {
			Status *string `json:"status"`
		}
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Status != nil {
			switch *req.Status {
			case core.InquiryNew, core.InquiryConverted, core.InquiryArchived:
				q.Status = *req.Status
			default:
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "status desconocido")
				return
			}
		}
		if err := d.Repo.UpdateInquiry(r.Context(), q); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, q)
	}
}

type convertRequest struct {
	// Username/password para la cuenta de portal del nuevo cliente.
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewInquiryConvertHandler convierte una consulta en client + cuenta de
// portal con rol client. La consulta queda marcada converted.
func NewInquiryConvertHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor := httpx.Principal(ctx)

		q, err := d.Repo.GetInquiry(ctx, chi.URLParam(r, "id"))
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		if q.Status == core.InquiryConverted {
			httpx.WriteError(w, http.StatusConflict, "conflict", "la consulta ya fue convertida")
			return
		}

		var req convertRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}

		cl := &core.Client{
			Name:    q.Name,
			Email:   q.Email,
			Company: q.Company,
			Notes:   q.Message,
		}
		if err := d.Repo.CreateClient(ctx, cl); err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" {
			username = q.Email
		}
		u, err := d.Auth.Register(ctx, auth.RegisterInput{
			Username: username,
			Email:    q.Email,
			Password: req.Password,
			Role:     core.RoleClient,
			ClientID: &cl.ID,
		})
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		q.Status = core.InquiryConverted
		if err := d.Repo.UpdateInquiry(ctx, q); err != nil {
			httpx.HandleError(w, r, err)
			return
		}

		d.Audit.Record(ctx, actor.ID, "inquiry_convert",
			"consulta convertida en cliente: "+cl.Name, "client", cl.ID)
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{"client": cl, "user": u})
	}
}

// Package router arma el árbol de rutas del portal sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/httpx/handlers"
	"github.com/brightforge/portal/internal/store/core"
)

func New(d handlers.Deps) http.Handler {
	r := chi.NewRouter()

	// Salud y métricas quedan fuera del access log para no ensuciarlo.
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := d.Repo.Ping(req.Context()); err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "storage no responde")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(httpx.WithRequestID(), httpx.WithAccessLog())

		// Público: auth, intake de consultas y contenido del sitio.
		api.Post("/register", handlers.NewRegisterHandler(d))
		api.Post("/login", handlers.NewLoginHandler(d))
		api.Post("/inquiries", handlers.NewInquiryCreateHandler(d))
		api.Get("/content", handlers.NewContentListHandler(d))
		api.Get("/content/{key}", handlers.NewContentGetHandler(d))

		// Cualquier usuario con sesión.
		api.Group(func(priv chi.Router) {
			priv.Use(httpx.RequireSession(d.Sessions, d.Repo))
			priv.Post("/logout", handlers.NewLogoutHandler(d))
			priv.Get("/user", handlers.NewMeHandler(d))

			priv.Get("/clients", handlers.NewClientListHandler(d))
			priv.Get("/clients/{id}", handlers.NewClientGetHandler(d))
			priv.Get("/projects", handlers.NewProjectListHandler(d))
			priv.Get("/projects/{id}", handlers.NewProjectGetHandler(d))
			priv.Get("/invoices", handlers.NewInvoiceListHandler(d))
			priv.Get("/invoices/{id}", handlers.NewInvoiceGetHandler(d))
			priv.Get("/documents", handlers.NewDocumentListHandler(d))

			priv.Get("/messages", handlers.NewMessageListHandler(d))
			priv.Post("/messages", handlers.NewMessageCreateHandler(d))
			priv.Post("/messages/{id}/read", handlers.NewMessageReadHandler(d))
		})

		// Solo admin: gestión del CRM, CMS, consultas y la conexión de billing.
		api.Group(func(adm chi.Router) {
			adm.Use(httpx.RequireSession(d.Sessions, d.Repo), httpx.RequireRole(core.RoleAdmin))

			adm.Get("/inquiries", handlers.NewInquiryListHandler(d))
			adm.Put("/inquiries/{id}", handlers.NewInquiryUpdateHandler(d))
			adm.Patch("/inquiries/{id}", handlers.NewInquiryUpdateHandler(d))
			adm.Post("/inquiries/{id}/convert", handlers.NewInquiryConvertHandler(d))

			adm.Post("/clients", handlers.NewClientCreateHandler(d))
			adm.Put("/clients/{id}", handlers.NewClientUpdateHandler(d))
			adm.Delete("/clients/{id}", handlers.NewClientDeleteHandler(d))

			adm.Post("/projects", handlers.NewProjectCreateHandler(d))
			adm.Put("/projects/{id}", handlers.NewProjectUpdateHandler(d))
			adm.Delete("/projects/{id}", handlers.NewProjectDeleteHandler(d))

			adm.Post("/invoices", handlers.NewInvoiceCreateHandler(d))
			adm.Put("/invoices/{id}", handlers.NewInvoiceUpdateHandler(d))
			adm.Delete("/invoices/{id}", handlers.NewInvoiceDeleteHandler(d))

			adm.Post("/documents", handlers.NewDocumentCreateHandler(d))
			adm.Delete("/documents/{id}", handlers.NewDocumentDeleteHandler(d))

			adm.Put("/content/{key}", handlers.NewContentUpsertHandler(d))
			adm.Get("/activity", handlers.NewActivityListHandler(d))

			adm.Get("/api-connections/freshbooks", handlers.NewConnectionStatusHandler(d))
			adm.Put("/api-connections/freshbooks", handlers.NewConnectionEditHandler(d))
			adm.Get("/freshbooks/connect", handlers.NewFreshbooksConnectHandler(d))
			adm.Get("/freshbooks/callback", handlers.NewFreshbooksCallbackHandler(d))
			adm.Post("/freshbooks/sync", handlers.NewFreshbooksSyncHandler(d))
		})
	})

	return r
}

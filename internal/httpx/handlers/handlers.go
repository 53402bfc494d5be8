// Package handlers tiene los http.HandlerFunc del API del portal.
// Cada constructor recibe sus dependencias explícitas vía Deps; no hay
// singletons ni estado global.
package handlers

import (
	"github.com/brightforge/portal/internal/audit"
	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/email"
	"github.com/brightforge/portal/internal/freshbooks"
	"github.com/brightforge/portal/internal/session"
	"github.com/brightforge/portal/internal/store/core"
)

type Deps struct {
	Repo       core.Repository
	Auth       *auth.Service
	Sessions   *session.Manager
	Audit      *audit.Recorder
	Freshbooks *freshbooks.Client
	Email      *email.Notifier
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightforge/portal/internal/httpx"
	"github.com/brightforge/portal/internal/store/core"
)

type messageRequest struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

func NewMessageCreateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.RecipientID == "" || strings.TrimSpace(req.Body) == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "recipient_id y body son requeridos")
			return
		}
		sender := httpx.Principal(r.Context())
		recipient, err := d.Repo.GetUserByID(r.Context(), req.RecipientID)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		// El hilo queda asociado al cliente involucrado, sea quien sea el emisor.
		clientID := ""
		if sender.ClientID != nil {
			clientID = *sender.ClientID
		} else if recipient.ClientID != nil {
			clientID = *recipient.ClientID
		}
		// Un client solo puede escribirle a admins o a usuarios de su propio cliente.
		if own, limited := ownClientID(sender); limited {
			sameClient := recipient.ClientID != nil && own != "" && *recipient.ClientID == own
			if recipient.Role != core.RoleAdmin && !sameClient {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "destinatario no permitido")
				return
			}
		}
		m := &core.Message{
			SenderID:    sender.ID,
			RecipientID: recipient.ID,
			ClientID:    clientID,
			Subject:     req.Subject,
			Body:        req.Body,
		}
		if err := d.Repo.CreateMessage(r.Context(), m); err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		d.Audit.Record(r.Context(), sender.ID, "message_send", "mensaje a "+recipient.Username, "message", m.ID)
		d.Email.NotifyMessage(recipient.Email, m.Subject)
		httpx.WriteJSON(w, http.StatusCreated, m)
	}
}

func NewMessageListHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := httpx.Principal(r.Context())
		out, err := d.Repo.ListMessagesForUser(r.Context(), u.ID)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func NewMessageReadHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := d.Repo.GetMessage(r.Context(), id)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		u := httpx.Principal(r.Context())
		if m.RecipientID != u.ID {
			httpx.WriteError(w, http.StatusForbidden, "forbidden", "solo el destinatario marca lectura")
			return
		}
		if m.ReadAt == nil {
			now := time.Now().UTC()
			if err := d.Repo.MarkMessageRead(r.Context(), id, now); err != nil {
				httpx.HandleError(w, r, err)
				return
			}
			m.ReadAt = &now
		}
		httpx.WriteJSON(w, http.StatusOK, m)
	}
}

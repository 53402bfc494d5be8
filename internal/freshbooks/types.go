package freshbooks

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/brightforge/portal/internal/store/core"
)

// externalID normaliza el id numérico del proveedor a string local.
func externalID(id json.Number) string { return id.String() }

type remoteClient struct {
	ID           json.Number `json:"id"`
	Organization string      `json:"organization"`
	FirstName    string      `json:"fname"`
	LastName     string      `json:"lname"`
	Email        string      `json:"email"`
	Phone        string      `json:"bus_phone"`
}

// displayName arma el nombre local: organización si existe, si no fname+lname.
func (r remoteClient) displayName() string {
	if strings.TrimSpace(r.Organization) != "" {
		return strings.TrimSpace(r.Organization)
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

type clientsPage struct {
	Response struct {
		Result struct {
			Clients []remoteClient `json:"clients"`
			Page    int            `json:"page"`
			Pages   int            `json:"pages"`
		} `json:"result"`
	} `json:"response"`
}

type remoteProject struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ClientID    json.Number `json:"client_id"`
	Complete    bool        `json:"complete"`
	Active      bool        `json:"active"`
}

func (r remoteProject) localStatus() string {
	switch {
	case r.Complete:
		return "completed"
	case r.Active:
		return "active"
	default:
		return "on_hold"
	}
}

type projectsPage struct {
	Projects []remoteProject `json:"projects"`
	Meta     struct {
		Page  int `json:"page"`
		Pages int `json:"pages"`
	} `json:"meta"`
}

type remoteInvoice struct {
	ID            json.Number `json:"id"`
	ClientID      json.Number `json:"customerid"`
	ProjectID     json.Number `json:"projectid"`
	InvoiceNumber string      `json:"invoice_number"`
	Status        string      `json:"v3_status"`
	DueDate       string      `json:"due_date"` // "2006-01-02"
	Amount        struct {
		Amount string `json:"amount"`
		Code   string `json:"code"`
	} `json:"amount"`
}

type invoicesPage struct {
	Response struct {
		Result struct {
			Invoices []remoteInvoice `json:"invoices"`
			Page     int             `json:"page"`
			Pages    int             `json:"pages"`
		} `json:"result"`
	} `json:"response"`
}

// mapInvoiceStatus colapsa el vocabulario del proveedor al enum local.
// Lossy a propósito: draft/sent/viewed son todos "pending" acá y nunca se
// intenta reconstruir el valor original en la otra dirección. Cualquier
// status desconocido también cae a pending.
func mapInvoiceStatus(remote string) string {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "paid":
		return core.InvoicePaid
	case "overdue":
		return core.InvoiceOverdue
	default: // draft, sent, viewed, y cualquier cosa nueva del proveedor
		return core.InvoicePending
	}
}

// parseAmountCents convierte "1234.50" a 123450. Montos malformados valen 0.
func parseAmountCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}
	var f int64
	if frac != "" {
		// Normalizar a 2 decimales.
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0
		}
	}
	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return cents
}

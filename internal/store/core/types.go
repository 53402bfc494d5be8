package core

import "time"

// Roles del portal. Modelo plano de dos roles, sin jerarquía.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Invoice statuses (local vocabulary).
const (
	InvoicePending = "pending"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
)

// Inquiry statuses.
const (
	InquiryNew       = "new"
	InquiryConverted = "converted"
	InquiryArchived  = "archived"
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	ClientID     *string    `json:"client_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DisabledAt   *time.Time `json:"disabled_at,omitempty"`
}

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	FreshbooksID *string   `json:"freshbooks_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Project struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"` // active|completed|on_hold
	FreshbooksID *string   `json:"freshbooks_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Invoice struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	ProjectID    *string    `json:"project_id,omitempty"`
	Number       string     `json:"number"`
	AmountCents  int64      `json:"amount_cents"`
	Status       string     `json:"status"` // pending|paid|overdue
	DueDate      *time.Time `json:"due_date,omitempty"`
	FreshbooksID *string    `json:"freshbooks_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"` // new|converted|archived
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	ProjectID  *string   `json:"project_id,omitempty"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	ClientID    string     `json:"client_id"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ContentBlock es un bloque editable del sitio (CMS liviano), keyed por slug.
type ContentBlock struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	SortOrder int       `json:"sort_order"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity es un registro de auditoría. Se escribe solo en acciones exitosas.
type Activity struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// APIConnection guarda el credential OAuth de un proveedor externo.
// Una fila por proveedor; se pisa in-place en cada exchange/refresh.
// Invariante: ExpiresAt refleja siempre el access token emitido más reciente.
type APIConnection struct {
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	AccountID    string    `json:"account_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

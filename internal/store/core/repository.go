package core

import (
	"context"
	"time"
)

// Repository es el contrato de storage del portal. Dos implementaciones
// intercambiables: memory (dev/tests) y pg (producción). El backend se
// elige una sola vez en el startup, nunca en los call sites.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error

	// Clients
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	GetClientByExternalID(ctx context.Context, provider, externalID string) (*Client, error)
	ListClients(ctx context.Context) ([]*Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, id string) error

	// Projects
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjectByExternalID(ctx context.Context, provider, externalID string) (*Project, error)
	ListProjects(ctx context.Context, clientID string) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	// Invoices
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByExternalID(ctx context.Context, provider, externalID string) (*Invoice, error)
	ListInvoices(ctx context.Context, clientID string) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	DeleteInvoice(ctx context.Context, id string) error

	// Inquiries
	CreateInquiry(ctx context.Context, q *Inquiry) error
	GetInquiry(ctx context.Context, id string) (*Inquiry, error)
	ListInquiries(ctx context.Context) ([]*Inquiry, error)
	UpdateInquiry(ctx context.Context, q *Inquiry) error

	// Documents
	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, clientID string) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Messages
	CreateMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListMessagesForUser(ctx context.Context, userID string) ([]*Message, error)
	MarkMessageRead(ctx context.Context, id string, at time.Time) error

	// Content blocks (CMS)
	UpsertContentBlock(ctx context.Context, b *ContentBlock) error
	GetContentBlock(ctx context.Context, key string) (*ContentBlock, error)
	ListContentBlocks(ctx context.Context) ([]*ContentBlock, error)

	// Activity (audit trail, append-only)
	AppendActivity(ctx context.Context, a *Activity) error
	ListActivity(ctx context.Context, limit int) ([]*Activity, error)

	// API connections (one per provider, upsert-in-place)
	UpsertAPIConnection(ctx context.Context, c *APIConnection) error
	GetAPIConnection(ctx context.Context, provider string) (*APIConnection, error)
}

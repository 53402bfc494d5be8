// Package memory implementa core.Repository sobre maps en proceso.
// Pensado para desarrollo y tests; no persiste nada.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightforge/portal/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]*core.User
	clients     map[string]*core.Client
	projects    map[string]*core.Project
	invoices    map[string]*core.Invoice
	inquiries   map[string]*core.Inquiry
	documents   map[string]*core.Document
	messages    map[string]*core.Message
	content     map[string]*core.ContentBlock
	activity    []*core.Activity
	connections map[string]*core.APIConnection
}

func New() *Store {
	return &Store{
		users:       map[string]*core.User{},
		clients:     map[string]*core.Client{},
		projects:    map[string]*core.Project{},
		invoices:    map[string]*core.Invoice{},
		inquiries:   map[string]*core.Inquiry{},
		documents:   map[string]*core.Document{},
		messages:    map[string]*core.Message{},
		content:     map[string]*core.ContentBlock{},
		connections: map[string]*core.APIConnection{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }

// ---------- Users ----------

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.users {
		if strings.EqualFold(e.Username, u.Username) || strings.EqualFold(e.Email, u.Email) {
			return core.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = newID()
	}
	u.CreatedAt = now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// ---------- Clients ----------

func (s *Store) CreateClient(_ context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt, c.UpdatedAt = now(), now()
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *Store) GetClient(_ context.Context, id string) (*core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) GetClientByExternalID(_ context.Context, _, externalID string) (*core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.FreshbooksID != nil && *c.FreshbooksID == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListClients(context.Context) ([]*core.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Client, 0, len(s.clients))
	for _, c := range s.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateClient(_ context.Context, c *core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.clients[c.ID]
	if !ok {
		return core.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = now()
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

// ---------- Projects ----------

func (s *Store) CreateProject(_ context.Context, p *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt, p.UpdatedAt = now(), now()
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProjectByExternalID(_ context.Context, _, externalID string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.FreshbooksID != nil && *p.FreshbooksID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListProjects(_ context.Context, clientID string) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*core.Project{}
	for _, p := range s.projects {
		if clientID == "" || p.ClientID == clientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProject(_ context.Context, p *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.projects[p.ID]
	if !ok {
		return core.ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = now()
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// ---------- Invoices ----------

func (s *Store) CreateInvoice(_ context.Context, inv *core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = newID()
	}
	inv.CreatedAt, inv.UpdatedAt = now(), now()
	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) GetInvoiceByExternalID(_ context.Context, _, externalID string) (*core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.FreshbooksID != nil && *inv.FreshbooksID == externalID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListInvoices(_ context.Context, clientID string) ([]*core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*core.Invoice{}
	for _, inv := range s.invoices {
		if clientID == "" || inv.ClientID == clientID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.invoices[inv.ID]
	if !ok {
		return core.ErrNotFound
	}
	inv.CreatedAt = old.CreatedAt
	inv.UpdatedAt = now()
	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.invoices, id)
	return nil
}

// ---------- Inquiries ----------

func (s *Store) CreateInquiry(_ context.Context, q *core.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Status == "" {
		q.Status = core.InquiryNew
	}
	q.CreatedAt = now()
	cp := *q
	s.inquiries[q.ID] = &cp
	return nil
}

func (s *Store) GetInquiry(_ context.Context, id string) (*core.Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.inquiries[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *Store) ListInquiries(context.Context) ([]*core.Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Inquiry, 0, len(s.inquiries))
	for _, q := range s.inquiries {
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateInquiry(_ context.Context, q *core.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.inquiries[q.ID]
	if !ok {
		return core.ErrNotFound
	}
	q.CreatedAt = old.CreatedAt
	cp := *q
	s.inquiries[q.ID] = &cp
	return nil
}

// ---------- Documents ----------

func (s *Store) CreateDocument(_ context.Context, d *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	d.CreatedAt = now()
	cp := *d
	s.documents[d.ID] = &cp
	return nil
}

func (s *Store) GetDocument(_ context.Context, id string) (*core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDocuments(_ context.Context, clientID string) ([]*core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*core.Document{}
	for _, d := range s.documents {
		if clientID == "" || d.ClientID == clientID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// ---------- Messages ----------

func (s *Store) CreateMessage(_ context.Context, m *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	m.CreatedAt = now()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *Store) GetMessage(_ context.Context, id string) (*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) ListMessagesForUser(_ context.Context, userID string) ([]*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*core.Message{}
	for _, m := range s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkMessageRead(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return core.ErrNotFound
	}
	m.ReadAt = &at
	return nil
}

// ---------- Content blocks ----------

func (s *Store) UpsertContentBlock(_ context.Context, b *core.ContentBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.UpdatedAt = now()
	cp := *b
	s.content[b.Key] = &cp
	return nil
}

func (s *Store) GetContentBlock(_ context.Context, key string) (*core.ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.content[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListContentBlocks(context.Context) ([]*core.ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ContentBlock, 0, len(s.content))
	for _, b := range s.content {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// ---------- Activity ----------

func (s *Store) AppendActivity(_ context.Context, a *core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	a.CreatedAt = now()
	cp := *a
	s.activity = append(s.activity, &cp)
	return nil
}

func (s *Store) ListActivity(_ context.Context, limit int) ([]*core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.activity)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*core.Activity, 0, limit)
	// Más recientes primero.
	for i := n - 1; i >= n-limit; i-- {
		cp := *s.activity[i]
		out = append(out, &cp)
	}
	return out, nil
}

// ---------- API connections ----------

func (s *Store) UpsertAPIConnection(_ context.Context, c *core.APIConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = now()
	cp := *c
	s.connections[c.Provider] = &cp
	return nil
}

func (s *Store) GetAPIConnection(_ context.Context, provider string) (*core.APIConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[provider]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightforge/portal/internal/store/core"
)

// ---------- Clients ----------

const clientCols = `id, name, email, phone, company, notes, freshbooks_id, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*core.Client, error) {
	var c core.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Notes, &c.FreshbooksID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO client (id, name, email, phone, company, notes, freshbooks_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Notes, c.FreshbooksID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetClient(ctx context.Context, id string) (*core.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM client WHERE id = $1`
	return scanClient(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetClientByExternalID(ctx context.Context, _, externalID string) (*core.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM client WHERE freshbooks_id = $1`
	return scanClient(s.pool.QueryRow(ctx, q, externalID))
}

func (s *Store) ListClients(ctx context.Context) ([]*core.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM client ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateClient(ctx context.Context, c *core.Client) error {
	const q = `
UPDATE client
SET name = $2, email = $3, phone = $4, company = $5, notes = $6,
    freshbooks_id = $7, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q, c.ID, c.Name, c.Email, c.Phone, c.Company, c.Notes, c.FreshbooksID).
		Scan(&c.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM client WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---------- Projects ----------

const projectCols = `id, client_id, name, description, status, freshbooks_id, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*core.Project, error) {
	var p core.Project
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.Status, &p.FreshbooksID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *core.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO project (id, client_id, name, description, status, freshbooks_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, p.ID, p.ClientID, p.Name, p.Description, p.Status, p.FreshbooksID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetProject(ctx context.Context, id string) (*core.Project, error) {
	const q = `SELECT ` + projectCols + ` FROM project WHERE id = $1`
	return scanProject(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetProjectByExternalID(ctx context.Context, _, externalID string) (*core.Project, error) {
	const q = `SELECT ` + projectCols + ` FROM project WHERE freshbooks_id = $1`
	return scanProject(s.pool.QueryRow(ctx, q, externalID))
}

func (s *Store) ListProjects(ctx context.Context, clientID string) ([]*core.Project, error) {
	q := `SELECT ` + projectCols + ` FROM project ORDER BY created_at`
	args := []any{}
	if clientID != "" {
		q = `SELECT ` + projectCols + ` FROM project WHERE client_id = $1 ORDER BY created_at`
		args = append(args, clientID)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p *core.Project) error {
	const q = `
UPDATE project
SET client_id = $2, name = $3, description = $4, status = $5,
    freshbooks_id = $6, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q, p.ID, p.ClientID, p.Name, p.Description, p.Status, p.FreshbooksID).
		Scan(&p.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM project WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---------- Invoices ----------

const invoiceCols = `id, client_id, project_id, number, amount_cents, status, due_date, freshbooks_id, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (*core.Invoice, error) {
	var inv core.Invoice
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.ProjectID, &inv.Number, &inv.AmountCents, &inv.Status,
		&inv.DueDate, &inv.FreshbooksID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *core.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	const q = `
INSERT INTO invoice (id, client_id, project_id, number, amount_cents, status, due_date, freshbooks_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, inv.ID, inv.ClientID, inv.ProjectID, inv.Number, inv.AmountCents,
		inv.Status, inv.DueDate, inv.FreshbooksID).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*core.Invoice, error) {
	const q = `SELECT ` + invoiceCols + ` FROM invoice WHERE id = $1`
	return scanInvoice(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetInvoiceByExternalID(ctx context.Context, _, externalID string) (*core.Invoice, error) {
	const q = `SELECT ` + invoiceCols + ` FROM invoice WHERE freshbooks_id = $1`
	return scanInvoice(s.pool.QueryRow(ctx, q, externalID))
}

func (s *Store) ListInvoices(ctx context.Context, clientID string) ([]*core.Invoice, error) {
	q := `SELECT ` + invoiceCols + ` FROM invoice ORDER BY created_at`
	args := []any{}
	if clientID != "" {
		q = `SELECT ` + invoiceCols + ` FROM invoice WHERE client_id = $1 ORDER BY created_at`
		args = append(args, clientID)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *core.Invoice) error {
	const q = `
UPDATE invoice
SET client_id = $2, project_id = $3, number = $4, amount_cents = $5, status = $6,
    due_date = $7, freshbooks_id = $8, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q, inv.ID, inv.ClientID, inv.ProjectID, inv.Number, inv.AmountCents,
		inv.Status, inv.DueDate, inv.FreshbooksID).Scan(&inv.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

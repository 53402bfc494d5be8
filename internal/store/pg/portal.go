package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightforge/portal/internal/store/core"
)

// ---------- Inquiries ----------

const inquiryCols = `id, name, email, company, message, status, created_at`

func scanInquiry(row interface{ Scan(...any) error }) (*core.Inquiry, error) {
	var q core.Inquiry
	err := row.Scan(&q.ID, &q.Name, &q.Email, &q.Company, &q.Message, &q.Status, &q.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (s *Store) CreateInquiry(ctx context.Context, q *core.Inquiry) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = core.InquiryNew
	}
	const sql = `
INSERT INTO inquiry (id, name, email, company, message, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, sql, q.ID, q.Name, q.Email, q.Company, q.Message, q.Status).
		Scan(&q.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetInquiry(ctx context.Context, id string) (*core.Inquiry, error) {
	const q = `SELECT ` + inquiryCols + ` FROM inquiry WHERE id = $1`
	return scanInquiry(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) ListInquiries(ctx context.Context) ([]*core.Inquiry, error) {
	const q = `SELECT ` + inquiryCols + ` FROM inquiry ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Inquiry
	for rows.Next() {
		i, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateInquiry(ctx context.Context, q *core.Inquiry) error {
	const sql = `
UPDATE inquiry SET name = $2, email = $3, company = $4, message = $5, status = $6
WHERE id = $1`
	ct, err := s.pool.Exec(ctx, sql, q.ID, q.Name, q.Email, q.Company, q.Message, q.Status)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---------- Documents ----------

const documentCols = `id, client_id, project_id, name, url, uploaded_by, created_at`

func scanDocument(row interface{ Scan(...any) error }) (*core.Document, error) {
	var d core.Document
	err := row.Scan(&d.ID, &d.ClientID, &d.ProjectID, &d.Name, &d.URL, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d *core.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	const q = `
INSERT INTO document (id, client_id, project_id, name, url, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, d.ID, d.ClientID, d.ProjectID, d.Name, d.URL, d.UploadedBy).
		Scan(&d.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	const q = `SELECT ` + documentCols + ` FROM document WHERE id = $1`
	return scanDocument(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) ListDocuments(ctx context.Context, clientID string) ([]*core.Document, error) {
	q := `SELECT ` + documentCols + ` FROM document ORDER BY created_at`
	args := []any{}
	if clientID != "" {
		q = `SELECT ` + documentCols + ` FROM document WHERE client_id = $1 ORDER BY created_at`
		args = append(args, clientID)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM document WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---------- Messages ----------

const messageCols = `id, sender_id, recipient_id, client_id, subject, body, read_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*core.Message, error) {
	var m core.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.ClientID, &m.Subject, &m.Body, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *core.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const q = `
INSERT INTO message (id, sender_id, recipient_id, client_id, subject, body)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, m.ID, m.SenderID, m.RecipientID, m.ClientID, m.Subject, m.Body).
		Scan(&m.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetMessage(ctx context.Context, id string) (*core.Message, error) {
	const q = `SELECT ` + messageCols + ` FROM message WHERE id = $1`
	return scanMessage(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) ListMessagesForUser(ctx context.Context, userID string) ([]*core.Message, error) {
	const q = `SELECT ` + messageCols + ` FROM message
WHERE sender_id = $1 OR recipient_id = $1
ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MarkMessageRead(ctx context.Context, id string, at time.Time) error {
	ct, err := s.pool.Exec(ctx, `UPDATE message SET read_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---------- Content blocks ----------

func (s *Store) UpsertContentBlock(ctx context.Context, b *core.ContentBlock) error {
	const q = `
INSERT INTO content_block (key, title, body, sort_order, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (key) DO UPDATE
SET title = EXCLUDED.title, body = EXCLUDED.body, sort_order = EXCLUDED.sort_order,
    updated_by = EXCLUDED.updated_by, updated_at = now()
RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q, b.Key, b.Title, b.Body, b.SortOrder, b.UpdatedBy).Scan(&b.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetContentBlock(ctx context.Context, key string) (*core.ContentBlock, error) {
	const q = `SELECT key, title, body, sort_order, updated_by, updated_at FROM content_block WHERE key = $1`
	var b core.ContentBlock
	err := s.pool.QueryRow(ctx, q, key).Scan(&b.Key, &b.Title, &b.Body, &b.SortOrder, &b.UpdatedBy, &b.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (s *Store) ListContentBlocks(ctx context.Context) ([]*core.ContentBlock, error) {
	const q = `SELECT key, title, body, sort_order, updated_by, updated_at
FROM content_block ORDER BY sort_order, key`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.ContentBlock
	for rows.Next() {
		var b core.ContentBlock
		if err := rows.Scan(&b.Key, &b.Title, &b.Body, &b.SortOrder, &b.UpdatedBy, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ---------- Activity ----------

func (s *Store) AppendActivity(ctx context.Context, a *core.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
INSERT INTO activity (id, actor_id, action, detail, entity_type, entity_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, a.ID, a.ActorID, a.Action, a.Detail, a.EntityType, a.EntityID).
		Scan(&a.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]*core.Activity, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, actor_id, action, detail, entity_type, entity_id, created_at
FROM activity ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*core.Activity
	for rows.Next() {
		var a core.Activity
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.Detail, &a.EntityType, &a.EntityID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ---------- API connections ----------

func (s *Store) UpsertAPIConnection(ctx context.Context, c *core.APIConnection) error {
	const q = `
INSERT INTO api_connection (provider, access_token, refresh_token, account_id, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (provider) DO UPDATE
SET access_token = EXCLUDED.access_token, refresh_token = EXCLUDED.refresh_token,
    account_id = EXCLUDED.account_id, expires_at = EXCLUDED.expires_at, updated_at = now()
RETURNING updated_at`
	err := s.pool.QueryRow(ctx, q, c.Provider, c.AccessToken, c.RefreshToken, c.AccountID, c.ExpiresAt).
		Scan(&c.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetAPIConnection(ctx context.Context, provider string) (*core.APIConnection, error) {
	const q = `SELECT provider, access_token, refresh_token, account_id, expires_at, updated_at
FROM api_connection WHERE provider = $1`
	var c core.APIConnection
	err := s.pool.QueryRow(ctx, q, provider).
		Scan(&c.Provider, &c.AccessToken, &c.RefreshToken, &c.AccountID, &c.ExpiresAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightforge/portal/internal/store/core"
)

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	const q = `
INSERT INTO app_user (id, username, email, password_hash, role, client_id)
VALUES ($1, LOWER($2), LOWER($3), $4, $5, $6)
RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.ClientID).
		Scan(&u.CreatedAt)
	return mapErr(err)
}

const userCols = `id, username, email, password_hash, role, client_id, created_at, disabled_at`

func scanUser(row interface{ Scan(...any) error }) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.ClientID, &u.CreatedAt, &u.DisabledAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `SELECT ` + userCols + ` FROM app_user WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const q = `SELECT ` + userCols + ` FROM app_user WHERE username = LOWER($1)`
	return scanUser(s.pool.QueryRow(ctx, q, username))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	const q = `SELECT ` + userCols + ` FROM app_user WHERE email = LOWER($1)`
	return scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	const q = `
UPDATE app_user
SET username = LOWER($2), email = LOWER($3), password_hash = $4, role = $5,
    client_id = $6, disabled_at = $7
WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.ClientID, u.DisabledAt)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

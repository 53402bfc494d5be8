package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres guarda sesiones en la tabla sessions. En la DB persiste el
// sha256 del token, no el token: un dump de la tabla no alcanza para
// secuestrar una sesión.
type Postgres struct{ pool *pgxpool.Pool }

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func (p *Postgres) Create(ctx context.Context, principalID string, ttl time.Duration) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	const q = `
INSERT INTO sessions (token_hash, principal_id, expires_at)
VALUES ($1, $2, $3)`
	if _, err := p.pool.Exec(ctx, q, hashToken(tok), principalID, time.Now().UTC().Add(ttl)); err != nil {
		return "", err
	}
	return tok, nil
}

func (p *Postgres) Resolve(ctx context.Context, token string) (string, error) {
	const q = `SELECT principal_id, expires_at FROM sessions WHERE token_hash = $1`
	var principalID string
	var expiresAt time.Time
	err := p.pool.QueryRow(ctx, q, hashToken(token)).Scan(&principalID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if time.Now().UTC().After(expiresAt) {
		// Limpieza perezosa del registro vencido.
		_, _ = p.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hashToken(token))
		return "", ErrExpired
	}
	return principalID, nil
}

func (p *Postgres) Destroy(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hashToken(token))
	return err
}

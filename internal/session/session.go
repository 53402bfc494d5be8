// Package session implementa las sesiones server-side del portal.
// El browser guarda solo un token opaco en una cookie; el token resuelve
// al principal id a través de un Store pluggable (memory, redis o postgres).
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Store persiste sesiones. Create devuelve el token opaco que viaja en la
// cookie; Resolve lo mapea de vuelta al principal id mientras no expire.
type Store interface {
	Create(ctx context.Context, principalID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Destroy(ctx context.Context, token string) error
}

// newToken genera 32 bytes aleatorios en base64url.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory guarda sesiones in-process. Para desarrollo y tests; las sesiones
// mueren con el proceso.
type Memory struct{ c *gocache.Cache }

func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Create(_ context.Context, principalID string, ttl time.Duration) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	m.c.Set(tok, principalID, ttl)
	return tok, nil
}

func (m *Memory) Resolve(_ context.Context, token string) (string, error) {
	v, ok := m.c.Get(token)
	if !ok {
		return "", ErrNotFound
	}
	id, _ := v.(string)
	return id, nil
}

func (m *Memory) Destroy(_ context.Context, token string) error {
	m.c.Delete(token)
	return nil
}

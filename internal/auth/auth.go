// Package auth verifica credenciales username/password contra hashes
// salteados y expone el registro de usuarios del portal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brightforge/portal/internal/security/password"
	"github.com/brightforge/portal/internal/store/core"
)

// ErrInvalidCredentials cubre tanto usuario inexistente como password
// incorrecto: el caller no puede distinguirlos.
var ErrInvalidCredentials = errors.New("invalid credentials")

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }

type Service struct {
	repo   core.Repository
	params password.Params
}

func NewService(repo core.Repository) *Service {
	return &Service{repo: repo, params: password.Default}
}

// NewServiceWithParams permite bajar el costo de scrypt en tests.
func NewServiceWithParams(repo core.Repository, p password.Params) *Service {
	return &Service{repo: repo, params: p}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
	ClientID *string
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return &ValidationError{Field: "username", Msg: "requerido"}
	}
	if !strings.Contains(in.Email, "@") {
		return &ValidationError{Field: "email", Msg: "email inválido"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Field: "password", Msg: "mínimo 8 caracteres"}
	}
	switch in.Role {
	case "", core.RoleClient, core.RoleAdmin:
	default:
		return &ValidationError{Field: "role", Msg: "rol desconocido"}
	}
	return nil
}

// Register crea el usuario con el password hasheado. Username/email
// duplicados devuelven core.ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*core.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = core.RoleClient
	}

	hash, err := password.Hash(s.params, in.Password)
	if err != nil {
		// Fallo del primitivo criptográfico: fatal para este request.
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &core.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         role,
		ClientID:     in.ClientID,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate busca por username y verifica el password en tiempo
// constante. Usuario ausente y password incorrecto son indistinguibles.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (*core.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.DisabledAt != nil {
		return nil, ErrInvalidCredentials
	}
	if !password.Verify(s.params, plain, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightforge/portal/internal/security/password"
	"github.com/brightforge/portal/internal/store/core"
	"github.com/brightforge/portal/internal/store/memory"
)

func testService() *Service {
	return NewServiceWithParams(memory.New(), password.Params{N: 1024, R: 8, P: 1, KeyLen: 32})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := testService()

	u, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw123456",
		Role:     core.RoleClient,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, core.RoleClient, u.Role)
	// El hash nunca es el password en claro.
	require.NotEqual(t, "pw123456", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice", "pw123456")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := testService()
	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "bob", "pw999999")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc := testService()
	_, err := svc.Authenticate(context.Background(), "nobody", "whatever1")
	// Mismo error que password incorrecto: no filtra existencia de usuarios.
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := testService()
	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "other@example.com", Password: "pw123456"})
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := testService()

	cases := []RegisterInput{
		{Username: "", Email: "a@b.c", Password: "pw123456"},
		{Username: "x", Email: "not-an-email", Password: "pw123456"},
		{Username: "x", Email: "a@b.c", Password: "short"},
		{Username: "x", Email: "a@b.c", Password: "pw123456", Role: "superuser"},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "input %+v", in)
	}
}

func TestRegister_DefaultRole(t *testing.T) {
	svc := testService()
	u, err := svc.Register(context.Background(), RegisterInput{Username: "dave", Email: "d@e.f", Password: "pw123456"})
	require.NoError(t, err)
	require.Equal(t, core.RoleClient, u.Role)
}

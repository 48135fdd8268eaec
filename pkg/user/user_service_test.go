package user

import (
	"context"
	"testing"

	"Cooki-Backend/domain"
	"Cooki-Backend/internal/testutil"
	"Cooki-Backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (UserService, *testutil.Store, jwt.JWTService) {
	t.Helper()
	store := testutil.NewStore()
	tokens, err := jwt.NewJWTServiceWithSecret("test-secret")
	require.NoError(t, err)
	return NewUserService(store, tokens), store, tokens
}

func TestRegisterCreatesDefaultPantry(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, domain.RegisterRequest{Name: "Alice", Email: "Alice@Example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "Alice's Pantry", res.Pantry.Name)
	assert.NotEmpty(t, res.Pantry.JoinToken)
	require.NotNil(t, res.User.CurrentPantryID)
	assert.Equal(t, res.Pantry.ID, *res.User.CurrentPantryID)
	assert.Equal(t, []string{res.Pantry.ID}, res.User.PantryIDs)

	me, err := svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{res.Pantry.ID}, me.PantryIDs)

	stored, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	req := domain.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "password123"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, domain.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, domain.LoginRequest{Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.UserID)

	id, err := tokens.GetUserIDByToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestGetRequester(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	carol := store.SeedUser("Carol")

	r, err := svc.GetRequester(ctx, carol.ID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, "Carol", r.Name)
	assert.Nil(t, r.Email)

	r, err = svc.GetRequester(ctx, carol.ID.String(), "carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, r.Email)
	assert.Equal(t, "carol@example.com", *r.Email)

	_, err = svc.Me(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roorreach/marketplace-backend/internal/users"
	pkgAuth "github.com/roorreach/marketplace-backend/pkg/auth"
	"github.com/roorreach/marketplace-backend/pkg/auth/session"
	"github.com/roorreach/marketplace-backend/pkg/config"
	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "roorreach", ExpirationMinutes: 30}

func TestRegisterThenLogin(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	reg, err := NewRegisterService(RegisterServiceParams{UserRepo: repo})
	require.NoError(t, err)
	created, err := reg.Register(ctx, validRegistration("Buyer@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", created.Email)
	assert.Equal(t, enums.UserRoleBuyer, created.Role)

	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWT})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "BUYER@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleBuyer, claims.Role)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Contains(t, sessions.tokens, claims.ID)
}

func TestRegisterRejections(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	reg, err := NewRegisterService(RegisterServiceParams{UserRepo: repo})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = reg.Register(ctx, validRegistration("dup@example.com"))
	require.NoError(t, err)
	_, err = reg.Register(ctx, validRegistration("DUP@example.com"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "duplicate email: %v", err)

	mismatch := validRegistration("m@example.com")
	mismatch.ConfirmPassword = "other-pass"
	_, err = reg.Register(ctx, mismatch)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	numeric := validRegistration("n@example.com")
	numeric.Password, numeric.ConfirmPassword = "12345678", "12345678"
	_, err = reg.Register(ctx, numeric)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	reg, err := NewRegisterService(RegisterServiceParams{UserRepo: repo})
	require.NoError(t, err)
	_, err = reg.Register(context.Background(), validRegistration("who@example.com"))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: newStubSessions(), JWTConfig: testJWT})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "who@example.com", Password: "wrong-pass"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "wrong-pass"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshPicksUpPromotedRole(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()
	reg, err := NewRegisterService(RegisterServiceParams{UserRepo: repo})
	require.NoError(t, err)
	created, err := reg.Register(ctx, validRegistration("promo@example.com"))
	require.NoError(t, err)

	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWT})
	require.NoError(t, err)
	login, err := svc.Login(ctx, LoginRequest{Email: "promo@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, repo.PromoteToSeller(ctx, created.ID))

	pair, err := svc.Refresh(ctx, RefreshInput{AccessID: claims.ID, UserID: created.ID, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	refreshed, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleSeller, refreshed.Role)
	assert.NotEqual(t, claims.ID, refreshed.ID)
	assert.NotContains(t, sessions.tokens, claims.ID)

	_, err = svc.Refresh(ctx, RefreshInput{AccessID: claims.ID, UserID: created.ID, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "old refresh token must not rotate twice")
}

func TestLogoutRevokes(t *testing.T) {
	sessions := newStubSessions()
	sessions.tokens["access-1"] = stubSession{userID: uuid.New(), token: "t"}
	svc, err := NewService(ServiceParams{UserRepo: users.NewRepository(dbtest.Open(t)), SessionManager: sessions, JWTConfig: testJWT})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "access-1"))
	assert.NotContains(t, sessions.tokens, "access-1")

	err = svc.Logout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func validRegistration(email string) RegisterRequest {
	return RegisterRequest{
		Email:           email,
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		FirstName:       "Rin",
		LastName:        "Sato",
		Location:        "Sylhet",
	}
}

type stubSession struct {
	userID uuid.UUID
	token  string
}

type stubSessions struct {
	tokens map[string]stubSession
	seq    int
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]stubSession{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.seq++
	token := "refresh-" + uuid.NewString()
	s.tokens[accessID] = stubSession{userID: userID, token: token}
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	current, ok := s.tokens[oldAccessID]
	if !ok || current.userID != userID || current.token != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token, err := s.Generate(ctx, newID, userID)
	return newID, token, err
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	if accessID == "" {
		return errors.New("access id is required")
	}
	delete(s.tokens, accessID)
	return nil
}

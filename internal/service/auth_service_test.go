package service

import (
	"context"
	"testing"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuthServiceForTest(userRepo *fakeUserRepo) AuthService {
	return NewAuthService(nil, zap.NewNop(), userRepo, nil, "test-secret", 24*time.Hour)
}

func seedUser(t *testing.T, userRepo *fakeUserRepo, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           1,
		Email:        "listener@store.test",
		Name:         "Listener",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	userRepo.users[1] = user
	return user
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	seedUser(t, userRepo, "correct horse")
	svc := newAuthServiceForTest(userRepo)

	tokens, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "listener@store.test",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", tokens.TokenType)

	claims, err := svc.VerifyToken(tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(1), claims.UserID)
	require.Equal(t, domain.RoleUser, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := newFakeUserRepo()
	seedUser(t, userRepo, "correct horse")
	svc := newAuthServiceForTest(userRepo)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "listener@store.test",
		Password: "battery staple",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthServiceForTest(newFakeUserRepo())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@store.test",
		Password: "whatever",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	userRepo := newFakeUserRepo()
	seedUser(t, userRepo, "correct horse")

	issuer := newAuthServiceForTest(userRepo)
	verifier := NewAuthService(nil, zap.NewNop(), userRepo, nil, "other-secret", 24*time.Hour)

	tokens, err := issuer.Login(context.Background(), &domain.LoginRequest{
		Email:    "listener@store.test",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = verifier.VerifyToken(tokens.AccessToken)
	require.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newAuthServiceForTest(newFakeUserRepo())

	_, err := svc.VerifyToken("not.a.token")
	require.Error(t, err)
}

package services

import (
	"chatwav/auth"
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenIssuer("test-secret", 24*time.Hour)
	svc := NewAuthService(slog.Default(), mockRepo, tokens)
	ctx := context.Background()

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		created := domain.User{ID: "user-uuid", Email: "test@example.com", Username: "tester", CreatedAt: time.Now().UTC()}

		// Expect CreateUser to be called with a hashed password, not the plain one
		mockRepo.EXPECT().
			CreateUser(gomock.Any(), "test@example.com", "tester", gomock.Not("secret")).
			Return(created, nil).
			Times(1)

		result, err := svc.Register(ctx, domain.RegisterRequest{Email: " test@example.com ", Username: "tester", Password: "secret"})

		req.NoError(err)
		req.Equal(created.Public(), result.User)
		identity, err := tokens.Verify(ctx, result.Token)
		req.NoError(err)
		req.Equal(created.Identity(), identity)
	})

	t.Run("should fail when validation is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should never be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(ctx, domain.RegisterRequest{Email: "test@example.com", Username: "tester", Password: "123"})

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any(), "duplicate@example.com", "tester", gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(ctx, domain.RegisterRequest{Email: "duplicate@example.com", Username: "tester", Password: "secret"})

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(slog.Default(), mockRepo, auth.NewTokenIssuer("test-secret", time.Hour))
	ctx := context.Background()

	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	user := domain.User{ID: "u1", Email: "user@example.com", Username: "user", PasswordHash: hash}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

		result, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "secret"})

		req.NoError(err)
		req.NotEmpty(result.Token)
		req.Equal(user.Public(), result.User)
	})

	t.Run("should fail with a wrong password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

		_, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "guess"})

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should not reveal unknown emails", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "ghost@example.com").Return(domain.User{}, errors.ErrUserNotFound)

		_, err := svc.Login(ctx, domain.LoginRequest{Email: "ghost@example.com", Password: "secret"})

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should propagate storage failures", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "user@example.com").Return(domain.User{}, fmt.Errorf("disk"))

		_, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "secret"})

		req.Error(err)
		req.NotErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_Me(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(slog.Default(), mockRepo, auth.NewTokenIssuer("test-secret", time.Hour))

	mockRepo.EXPECT().GetUserByID(gomock.Any(), domain.UserID("ghost")).Return(domain.User{}, errors.ErrUserNotFound)

	_, err := svc.Me(context.Background(), "ghost")

	req.ErrorIs(err, errors.ErrUserNotFound)
}

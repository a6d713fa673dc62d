package services

import (
	"chatwav/auth"
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/repositories"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenIssuer
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	// Validate before any expensive cryptographic operation
	if err := auth.ValidateStruct(req); err != nil {
		return domain.AuthResult{}, err
	}

	// Hashing stays in the service so the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(ctx, req.Email, req.Username, hashedPassword)
	if err != nil {
		// ErrUserAlreadyExists or ErrUsernameTaken
		return domain.AuthResult{}, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := auth.ValidateStruct(req); err != nil {
		return domain.AuthResult{}, err
	}

	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if goerrors.Is(err, errors.ErrUserNotFound) {
			// Same answer as a wrong password to prevent user enumeration
			return domain.AuthResult{}, errors.ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return domain.AuthResult{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (domain.PublicUser, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) issue(user domain.User) (domain.AuthResult, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return domain.AuthResult{User: user.Public(), Token: token}, nil
}

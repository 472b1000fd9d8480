package usecase

import (
	"context"
	"time"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

// AuthProvider is the identity backend. Credentials and token issuance
// live there; the application only stores the profile document keyed by
// the provider's uid.
type AuthProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	GenerateToken(ctx context.Context, uid string) (string, error)
}

type AuthUseCase struct {
	authProvider AuthProvider
	userRepo     repository.UserRepository
}

func NewAuthUseCase(authProvider AuthProvider, userRepo repository.UserRepository) *AuthUseCase {
	return &AuthUseCase{
		authProvider: authProvider,
		userRepo:     userRepo,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type RegisterResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates the identity in the auth backend and then the profile
// document under the same uid. If the profile write fails the identity
// already exists; registering again with the same email surfaces the
// backend's duplicate error rather than a dangling profile.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	uid, err := uc.authProvider.CreateUser(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		logger.Error("Register: identity creation failed for %s: %v", input.Email, err)
		return nil, errors.Unauthorized("Failed to create account", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("Register: profile write failed for uid %s: %v", uid, err)
		return nil, err
	}

	token, err := uc.authProvider.GenerateToken(ctx, uid)
	if err != nil {
		// The account is usable, the client just has to sign in normally.
		logger.Warn("Register: token generation failed for uid %s: %v", uid, err)
		return &RegisterResult{User: user}, nil
	}

	return &RegisterResult{User: user, Token: token}, nil
}

package usecase

import (
	"context"
	"strings"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
)

type UserUseCase struct {
	userRepo  repository.UserRepository
	directory *ParticipantDirectory
}

func NewUserUseCase(userRepo repository.UserRepository, directory *ParticipantDirectory) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		directory: directory,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	DisplayName string
	Description string
	AvatarURL   string
}

// UpdateProfile rewrites the user's profile and invalidates the directory
// entry so subsequent resolves see the edit.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, errors.InvalidInput("Display name cannot be empty", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = input.DisplayName
	user.Description = input.Description
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	uc.directory.Invalidate(userID)
	return user, nil
}

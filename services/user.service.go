package services

import (
	"context"

	"stayfinder-service/domain"
)

type UserService interface {
	UpdateProfile(ctx context.Context, caller *domain.User, input *domain.UpdateProfileInput, avatar *FileUpload) (*domain.UserResponse, error)
}

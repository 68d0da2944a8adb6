package services

import (
	"context"

	"stayfinder-service/domain"
)

type AuthService interface {
	SessionResolver
	Register(ctx context.Context, input *domain.RegisterInput, avatar *FileUpload) (*domain.AuthResult, error)
	Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	ResetPassword(ctx context.Context, caller *domain.User, input *domain.ResetPasswordInput) error
}

package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

type AuthServiceImpl struct {
	users  domain.UserRepo
	tokens *utils.TokenIssuer
	images ImageStore
	now    Clock
	Tracer trace.Tracer
}

func NewAuthServiceImpl(users domain.UserRepo, tokens *utils.TokenIssuer, images ImageStore, now Clock, tr trace.Tracer) AuthService {
	return &AuthServiceImpl{users: users, tokens: tokens, images: images, now: now, Tracer: tr}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input *domain.RegisterInput, avatar *FileUpload) (*domain.AuthResult, error) {
	ctx, span := s.Tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, fail(span, domain.InvalidRequest("Name, email and password are required"))
	}
	if !utils.ValidateName(name) {
		return nil, fail(span, domain.InvalidRequest("Name must be between 2 and 50 characters"))
	}
	if !utils.ValidateEmail(email) {
		return nil, fail(span, domain.InvalidRequest("Invalid email format"))
	}
	if !utils.ValidatePassword(input.Password) {
		return nil, fail(span, domain.InvalidRequest("Password must be between 6 and 100 characters"))
	}
	role := input.Role
	if role == "" {
		role = domain.Guest
	}
	if role != domain.Guest && role != domain.Host {
		return nil, fail(span, domain.InvalidRequest("Role must be guest or host"))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fail(span, domain.Conflict("User with this email already exists"))
	} else if !errors.Is(err, domain.ErrUserNotFound()) {
		return nil, fail(span, domain.Internal("failed to look up user", err))
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to hash password", err))
	}

	avatarURL := domain.DefaultAvatar
	if avatar != nil {
		avatarURL, err = s.images.Upload(ctx, avatar.Content, avatar.Name)
		if err != nil {
			return nil, fail(span, domain.Internal("failed to upload avatar", err))
		}
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Avatar:    avatarURL,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if avatar != nil {
			_ = s.images.Delete(ctx, avatarURL)
		}
		if errors.Is(err, domain.ErrDuplicateEmail()) {
			return nil, fail(span, domain.Conflict("User with this email already exists"))
		}
		return nil, fail(span, domain.Internal("failed to create user", err))
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, fail(span, err)
	}
	return result, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	ctx, span := s.Tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, fail(span, domain.InvalidRequest("Email and password are required"))
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return nil, fail(span, domain.NotFound("User not found"))
		}
		return nil, fail(span, domain.Internal("failed to look up user", err))
	}
	if err := utils.VerifyPassword(user.Password, input.Password); err != nil {
		return nil, fail(span, domain.Unauthorized("Invalid credentials"))
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, fail(span, err)
	}
	return result, nil
}

func (s *AuthServiceImpl) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := s.Tracer.Start(ctx, "AuthService.RefreshAccessToken")
	defer span.End()

	if refreshToken == "" {
		return "", fail(span, domain.Unauthorized("Refresh token is required"))
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", fail(span, domain.Unauthorized("Invalid or expired refresh token"))
	}
	user, err := s.userFromSubject(ctx, claims.Subject)
	if err != nil {
		return "", fail(span, err)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID.Hex(), user.Name, user.Email, string(user.Role))
	if err != nil {
		return "", fail(span, domain.Internal("failed to issue access token", err))
	}
	return token, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, caller *domain.User, input *domain.ResetPasswordInput) error {
	ctx, span := s.Tracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if input.Email == "" || input.OldPassword == "" || input.NewPassword == "" {
		return fail(span, domain.InvalidRequest("Email, old password and new password are required"))
	}
	if utils.NormalizeEmail(input.Email) != caller.Email {
		return fail(span, domain.Forbidden("You can only reset your own password"))
	}
	if err := utils.VerifyPassword(caller.Password, input.OldPassword); err != nil {
		return fail(span, domain.Unauthorized("Old password is incorrect"))
	}
	if !utils.ValidatePassword(input.NewPassword) {
		return fail(span, domain.InvalidRequest("Password must be between 6 and 100 characters"))
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return fail(span, domain.Internal("failed to hash password", err))
	}
	if err := s.users.UpdatePassword(ctx, caller.ID, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return fail(span, domain.NotFound("User not found"))
		}
		return fail(span, domain.Internal("failed to update password", err))
	}
	return nil
}

func (s *AuthServiceImpl) ResolveSession(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := s.Tracer.Start(ctx, "AuthService.ResolveSession")
	defer span.End()

	if accessToken == "" {
		return nil, fail(span, domain.Unauthorized("Unauthorized request"))
	}
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fail(span, domain.Unauthorized("Invalid or expired access token"))
	}
	user, err := s.userFromSubject(ctx, claims.Subject)
	if err != nil {
		return nil, fail(span, err)
	}
	return user, nil
}

func (s *AuthServiceImpl) userFromSubject(ctx context.Context, subject string) (*domain.User, error) {
	id, err := primitive.ObjectIDFromHex(subject)
	if err != nil {
		return nil, domain.Unauthorized("Invalid token subject")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return nil, domain.Unauthorized("User no longer exists")
		}
		return nil, domain.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) issueTokens(user *domain.User) (*domain.AuthResult, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID.Hex(), user.Name, user.Email, string(user.Role))
	if err != nil {
		return nil, domain.Internal("failed to issue access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return nil, domain.Internal("failed to issue refresh token", err)
	}
	return &domain.AuthResult{User: user.Response(), AccessToken: access, RefreshToken: refresh}, nil
}


package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

const maxPhoneLength = 20

type UserServiceImpl struct {
	users  domain.UserRepo
	images ImageStore
	logger *logrus.Logger
	Tracer trace.Tracer
}

func NewUserServiceImpl(users domain.UserRepo, images ImageStore, logger *logrus.Logger, tr trace.Tracer) UserService {
	return &UserServiceImpl{users: users, images: images, logger: logger, Tracer: tr}
}

// UpdateProfile changes only the fields that were sent. A new avatar
// replaces the old one, whose stored copy is then removed.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, caller *domain.User, input *domain.UpdateProfileInput, avatar *FileUpload) (*domain.UserResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "UserService.UpdateProfile")
	defer span.End()

	name, phone, avatarURL := caller.Name, caller.Phone, caller.Avatar
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if !utils.ValidateName(name) {
			return nil, fail(span, domain.InvalidRequest("Name must be between 2 and 50 characters"))
		}
	}
	if input.Phone != nil {
		phone = strings.TrimSpace(*input.Phone)
		if utf8.RuneCountInString(phone) > maxPhoneLength {
			return nil, fail(span, domain.InvalidRequest("Phone number is too long"))
		}
	}
	if avatar != nil {
		url, err := s.images.Upload(ctx, avatar.Content, avatar.Name)
		if err != nil {
			return nil, fail(span, domain.Internal("failed to upload avatar", err))
		}
		avatarURL = url
	}

	updated, err := s.users.UpdateProfile(ctx, caller.ID, name, phone, avatarURL)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return nil, fail(span, domain.NotFound("User not found"))
		}
		return nil, fail(span, domain.Internal("failed to update profile", err))
	}

	if avatar != nil && caller.Avatar != "" && caller.Avatar != domain.DefaultAvatar && caller.Avatar != avatarURL {
		if err := s.images.Delete(ctx, caller.Avatar); err != nil {
			s.logger.WithFields(logrus.Fields{"path": "services/user"}).Warn("old avatar cleanup failed: ", err)
		}
	}
	return updated.Response(), nil
}

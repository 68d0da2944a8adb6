package services

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

// SessionResolver turns an access token into the user it was issued to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, accessToken string) (*domain.User, error)
}

type ListingCache interface {
	GetListing(ctx context.Context, id string) (*domain.ListingResponse, bool)
	SetListing(ctx context.Context, id string, listing *domain.ListingResponse)
	GetAll(ctx context.Context) ([]*domain.ListingResponse, bool)
	SetAll(ctx context.Context, listings []*domain.ListingResponse)
	Invalidate(ctx context.Context, ids ...string)
}

type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (*domain.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Notifier interface {
	Send(data *utils.EmailData) error
}

// Clock reports the current instant; tests pin it.
type Clock func() time.Time

// FileUpload is one file from a multipart request.
type FileUpload struct {
	Name    string
	Content io.Reader
}

func fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}

func internal(message string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.Internal(message, err)
}

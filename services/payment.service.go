package services

import (
	"context"

	"stayfinder-service/domain"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, input *domain.OrderInput) (*domain.Order, error)
}

package services

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

type PaymentServiceImpl struct {
	gateway PaymentGateway
	Tracer  trace.Tracer
}

func NewPaymentServiceImpl(gateway PaymentGateway, tr trace.Tracer) PaymentService {
	return &PaymentServiceImpl{gateway: gateway, Tracer: tr}
}

func (s *PaymentServiceImpl) CreateOrder(ctx context.Context, input *domain.OrderInput) (*domain.Order, error) {
	ctx, span := s.Tracer.Start(ctx, "PaymentService.CreateOrder")
	defer span.End()

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Amount <= 0 || currency == "" {
		return nil, fail(span, domain.InvalidRequest("Amount and currency are required"))
	}
	if !currencyCode.MatchString(currency) {
		return nil, fail(span, domain.InvalidRequest("Currency must be a 3 letter code"))
	}

	order, err := s.gateway.CreateOrder(ctx, ToMinorUnits(input.Amount), currency)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to create payment order", err))
	}
	return order, nil
}

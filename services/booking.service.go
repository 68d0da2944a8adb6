package services

import (
	"context"

	"stayfinder-service/domain"
)

type BookingService interface {
	CreateBooking(ctx context.Context, guest *domain.User, req *domain.BookingRequest) (*domain.Booking, error)
	VerifyBooking(ctx context.Context, guest *domain.User, req *domain.BookingRequest) (*domain.BookingCheck, error)
	Quote(ctx context.Context, req *domain.QuoteRequest) (*domain.BookingCheck, error)
	GetHostBookings(ctx context.Context, host *domain.User) ([]*domain.BookingView, error)
	GetGuestBookings(ctx context.Context, guest *domain.User) ([]*domain.BookingView, error)
}

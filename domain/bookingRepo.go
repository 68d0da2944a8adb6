package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepo interface {
	Insert(ctx context.Context, booking *Booking) error
	// FindOverlapping returns the first booking on the listing whose
	// [checkIn, checkOut) intersects the given one, or nil.
	FindOverlapping(ctx context.Context, listingID primitive.ObjectID, checkIn, checkOut time.Time) (*Booking, error)
	FindByListings(ctx context.Context, listingIDs []primitive.ObjectID) ([]*Booking, error)
	FindByGuest(ctx context.Context, guestID primitive.ObjectID) ([]*Booking, error)
	CountCheckingOutAfter(ctx context.Context, listingID primitive.ObjectID, t time.Time) (int64, error)
	HasStayEndedBefore(ctx context.Context, listingID, guestID primitive.ObjectID, t time.Time) (bool, error)
}

// Transactor runs fn as one atomic unit. Repository calls made with the
// context passed to fn take part in the unit.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

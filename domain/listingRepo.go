package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ListingRepo interface {
	Insert(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Listing, error)
	FindAll(ctx context.Context) ([]*Listing, error)
	FindByHost(ctx context.Context, hostID primitive.ObjectID) ([]*Listing, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Listing, error)
	Search(ctx context.Context, search ListingSearch) ([]*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ReplaceAvailability swaps availableDates only if the stored version
	// still equals expectedVersion, and bumps the version. ErrStaleListing
	// is returned when it does not.
	ReplaceAvailability(ctx context.Context, id primitive.ObjectID, expectedVersion int64, ranges []DateRange) error
	AddReview(ctx context.Context, id primitive.ObjectID, review Review) error
}

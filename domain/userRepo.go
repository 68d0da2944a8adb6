package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepo interface {
	Insert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone, avatar string) (*User, error)
	// ToggleListingRef flips membership of listingID in the given list and
	// reports whether it is present afterwards.
	ToggleListingRef(ctx context.Context, id primitive.ObjectID, field ListingRefField, listingID primitive.ObjectID) (bool, error)
	PullListingRefs(ctx context.Context, listingID primitive.ObjectID) error
}

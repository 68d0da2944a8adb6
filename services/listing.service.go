package services

import (
	"context"

	"stayfinder-service/domain"
)

type ListingService interface {
	CreateListing(ctx context.Context, host *domain.User, input *domain.ListingInput, images []*FileUpload) (*domain.ListingResponse, error)
	GetListing(ctx context.Context, id string) (*domain.ListingResponse, error)
	GetAllListings(ctx context.Context) ([]*domain.ListingResponse, error)
	GetOwnListings(ctx context.Context, host *domain.User) ([]*domain.Listing, error)
	GetListingsByHost(ctx context.Context, hostID string) ([]*domain.ListingResponse, error)
	SearchListings(ctx context.Context, query *domain.SearchQuery) ([]*domain.ListingResponse, error)
	UpdateListing(ctx context.Context, host *domain.User, id string, input *domain.ListingInput, images []*FileUpload) (*domain.ListingResponse, error)
	DeleteListing(ctx context.Context, host *domain.User, id string) error
	ToggleLike(ctx context.Context, user *domain.User, id string) (bool, error)
	ToggleSave(ctx context.Context, user *domain.User, id string) (bool, error)
	GetLikedListings(ctx context.Context, user *domain.User) ([]*domain.Listing, error)
	GetSavedListings(ctx context.Context, user *domain.User) ([]*domain.Listing, error)
	AddReview(ctx context.Context, user *domain.User, id string, input *domain.ReviewInput) (*domain.ListingResponse, error)
}

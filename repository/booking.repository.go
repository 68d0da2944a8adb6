package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayfinder-service/domain"
)

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{collection: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, booking)
	return err
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, listingID primitive.ObjectID, checkIn, checkOut time.Time) (*domain.Booking, error) {
	filter := bson.M{
		"listing":  listingID,
		"checkIn":  bson.M{"$lt": checkOut},
		"checkOut": bson.M{"$gt": checkIn},
	}
	var booking domain.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindByListings(ctx context.Context, listingIDs []primitive.ObjectID) ([]*domain.Booking, error) {
	if len(listingIDs) == 0 {
		return []*domain.Booking{}, nil
	}
	return r.find(ctx, bson.M{"listing": bson.M{"$in": listingIDs}})
}

func (r *BookingRepository) FindByGuest(ctx context.Context, guestID primitive.ObjectID) ([]*domain.Booking, error) {
	return r.find(ctx, bson.M{"guest": guestID})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domain.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	bookings := []*domain.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountCheckingOutAfter counts bookings on the listing that are not yet completed at t.
func (r *BookingRepository) CountCheckingOutAfter(ctx context.Context, listingID primitive.ObjectID, t time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"listing":  listingID,
		"checkOut": bson.M{"$gte": t},
	})
}

func (r *BookingRepository) HasStayEndedBefore(ctx context.Context, listingID, guestID primitive.ObjectID, t time.Time) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{
		"listing":  listingID,
		"guest":    guestID,
		"checkOut": bson.M{"$lt": t},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayfinder-service/domain"
)

const earthRadiusKm = 6378.1

type ListingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{collection: db.Collection(listingsCollection)}
}

func (r *ListingRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	if listing.ID.IsZero() {
		listing.ID = primitive.NewObjectID()
	}
	if listing.Reviews == nil {
		listing.Reviews = []domain.Review{}
	}
	_, err := r.collection.InsertOne(ctx, listing)
	return err
}

func (r *ListingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	var listing domain.Listing
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound()
		}
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{}, newestFirst())
}

func (r *ListingRepository) FindByHost(ctx context.Context, hostID primitive.ObjectID) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{"host": hostID}, newestFirst())
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Listing, error) {
	if len(ids) == 0 {
		return []*domain.Listing{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, newestFirst())
}

func (r *ListingRepository) Search(ctx context.Context, search domain.ListingSearch) ([]*domain.Listing, error) {
	opts := newestFirst()
	if search.Limit > 0 {
		page := search.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * search.Limit)).SetLimit(int64(search.Limit))
	}
	return r.find(ctx, buildSearchFilter(search), opts)
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	listings := []*domain.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func buildSearchFilter(search domain.ListingSearch) bson.M {
	filter := bson.M{}

	if search.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"city": rx},
		}
	}
	if search.City != "" {
		filter["city"] = exactFold(search.City)
	}
	if search.Country != "" {
		filter["country"] = exactFold(search.Country)
	}

	price := bson.M{}
	if search.MinPrice > 0 {
		price["$gte"] = search.MinPrice
	}
	if search.MaxPrice > 0 {
		price["$lte"] = search.MaxPrice
	}
	if len(price) > 0 {
		filter["pricePerNight"] = price
	}

	if len(search.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": search.Amenities}
	}

	if search.Near != nil {
		filter["location"] = bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{
				bson.A{search.Near.Longitude(), search.Near.Latitude()},
				search.RadiusKm / earthRadiusKm,
			},
		}}
	}

	if !search.From.IsZero() && !search.To.IsZero() {
		filter["availableDates"] = bson.M{"$elemMatch": bson.M{
			"from": bson.M{"$lte": search.From},
			"to":   bson.M{"$gte": search.To},
		}}
	}

	return filter
}

func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// Update writes the editable fields if the stored version still matches the
// one the caller read, and advances the version on success.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	listing.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": listing.ID, "availabilityVersion": listing.AvailabilityVersion}
	update := bson.M{
		"$set": bson.M{
			"title":          listing.Title,
			"description":    listing.Description,
			"city":           listing.City,
			"country":        listing.Country,
			"address":        listing.Address,
			"location":       listing.Location,
			"pricePerNight":  listing.PricePerNight,
			"images":         listing.Images,
			"amenities":      listing.Amenities,
			"availableDates": listing.AvailableDates,
			"updatedAt":      listing.UpdatedAt,
		},
		"$inc": bson.M{"availabilityVersion": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missingOrStale(ctx, listing.ID)
	}
	listing.AvailabilityVersion++
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound()
	}
	return nil
}

func (r *ListingRepository) ReplaceAvailability(ctx context.Context, id primitive.ObjectID, expectedVersion int64, ranges []domain.DateRange) error {
	if ranges == nil {
		ranges = []domain.DateRange{}
	}
	filter := bson.M{"_id": id, "availabilityVersion": expectedVersion}
	update := bson.M{
		"$set": bson.M{"availableDates": ranges, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"availabilityVersion": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrStaleListing()
	}
	return nil
}

func (r *ListingRepository) AddReview(ctx context.Context, id primitive.ObjectID, review domain.Review) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"reviews": review},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound()
	}
	return nil
}

func (r *ListingRepository) missingOrStale(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrListingNotFound()
	}
	return domain.ErrStaleListing()
}

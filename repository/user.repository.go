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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.LikedListings == nil {
		user.LikedListings = []primitive.ObjectID{}
	}
	if user.SavedListings == nil {
		user.SavedListings = []primitive.ObjectID{}
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail()
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound()
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	users := []*domain.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone, avatar string) (*domain.User, error) {
	update := bson.M{"$set": bson.M{
		"name":      name,
		"phone":     phone,
		"avatar":    avatar,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound()
		}
		return nil, err
	}
	return &user, nil
}

// ToggleListingRef flips membership with one pipeline update on the user document.
func (r *UserRepository) ToggleListingRef(ctx context.Context, id primitive.ObjectID, field domain.ListingRefField, listingID primitive.ObjectID) (bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, toggleListingRefPipeline(field, listingID, time.Now().UTC()), opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, domain.ErrUserNotFound()
		}
		return false, err
	}

	list := user.LikedListings
	if field == domain.SavedListings {
		list = user.SavedListings
	}
	for _, ref := range list {
		if ref == listingID {
			return true, nil
		}
	}
	return false, nil
}

func toggleListingRefPipeline(field domain.ListingRefField, listingID primitive.ObjectID, now time.Time) mongo.Pipeline {
	current := bson.M{"$ifNull": bson.A{"$" + string(field), bson.A{}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: string(field), Value: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{listingID, current}},
				bson.M{"$setDifference": bson.A{current, bson.A{listingID}}},
				bson.M{"$concatArrays": bson.A{current, bson.A{listingID}}},
			}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

func (r *UserRepository) PullListingRefs(ctx context.Context, listingID primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{
		bson.M{string(domain.LikedListings): listingID},
		bson.M{string(domain.SavedListings): listingID},
	}}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{
		"$pull": bson.M{
			string(domain.LikedListings): listingID,
			string(domain.SavedListings): listingID,
		},
	})
	return err
}

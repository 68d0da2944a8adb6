package repository

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"stayfinder-service/domain"
)

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns id and empty lists", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.Guest}
		if err := repo.Insert(ctx(), user); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if user.ID.IsZero() {
			t.Error("expected an id to be assigned")
		}
		if user.LikedListings == nil || user.SavedListings == nil {
			t.Error("expected empty reference lists")
		}
	})

	mt.Run("insert duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Insert(ctx(), &domain.User{Email: "ann@example.com"})
		if !errors.Is(err, domain.ErrDuplicateEmail()) {
			t.Errorf("got %v, want duplicate email", err)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		stored := &domain.User{ID: id, Name: "Ann", Email: "ann@example.com", Role: domain.Host, CreatedAt: time.Now().UTC()}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, toDoc(t, stored)))

		user, err := repo.FindByEmail(ctx(), "ann@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if user.ID != id || user.Role != domain.Host {
			t.Errorf("unexpected user %+v", user)
		}
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		if _, err := repo.FindByID(ctx(), primitive.NewObjectID()); !errors.Is(err, domain.ErrUserNotFound()) {
			t.Errorf("got %v, want not found", err)
		}
	})

	mt.Run("update password on missing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(matched(0))

		if err := repo.UpdatePassword(ctx(), primitive.NewObjectID(), "hash"); !errors.Is(err, domain.ErrUserNotFound()) {
			t.Errorf("got %v, want not found", err)
		}
	})

	mt.Run("toggle reports membership after update", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		listingID := primitive.NewObjectID()
		after := &domain.User{ID: primitive.NewObjectID(), LikedListings: []primitive.ObjectID{listingID}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, after)}))

		liked, err := repo.ToggleListingRef(ctx(), after.ID, domain.LikedListings, listingID)
		if err != nil {
			t.Fatalf("ToggleListingRef: %v", err)
		}
		if !liked {
			t.Error("expected the listing to be liked")
		}
	})

	mt.Run("toggle off", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		listingID := primitive.NewObjectID()
		after := &domain.User{ID: primitive.NewObjectID(), LikedListings: []primitive.ObjectID{listingID}, SavedListings: []primitive.ObjectID{}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, after)}))

		saved, err := repo.ToggleListingRef(ctx(), after.ID, domain.SavedListings, listingID)
		if err != nil {
			t.Fatalf("ToggleListingRef: %v", err)
		}
		if saved {
			t.Error("saved list should not contain the listing")
		}
	})
}

func TestToggleListingRefPipeline(t *testing.T) {
	id := primitive.NewObjectID()
	pipeline := toggleListingRefPipeline(domain.SavedListings, id, time.Now())
	if len(pipeline) != 1 {
		t.Fatalf("expected a single stage, got %d", len(pipeline))
	}
	stage := pipeline[0]
	if stage[0].Key != "$set" {
		t.Fatalf("stage = %v", stage[0].Key)
	}
	set := stage[0].Value.(bson.D)
	if set[0].Key != "savedListings" {
		t.Errorf("toggled field = %s", set[0].Key)
	}
	cond := set[0].Value.(bson.M)["$cond"].(bson.A)
	if len(cond) != 3 {
		t.Errorf("expected if/then/else, got %d parts", len(cond))
	}
}

package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// MongoStore implements Store on a MongoDB collection. Users are documents
// keyed by their id, with a unique index on the normalized email.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed user store and ensures its indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	col := db.Collection(usersCollection)

	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	return &MongoStore{col: col}, nil
}

// Create inserts a new user document.
func (s *MongoStore) Create(ctx context.Context, u *User) error {
	if _, err := s.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

// FindByID returns the user document by id.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return &u, nil
}

// FindByEmail returns the user document for a normalized email.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.col.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return &u, nil
}

// Update applies the non-nil profile fields.
func (s *MongoStore) Update(ctx context.Context, id string, upd ProfileUpdate) error {
	if upd.IsEmpty() {
		return nil
	}

	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.GivenName != nil {
		set["given_name"] = *upd.GivenName
	}
	if upd.FamilyName != nil {
		set["family_name"] = *upd.FamilyName
	}
	if upd.ProfilePicture != nil {
		set["profile_picture"] = *upd.ProfilePicture
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetBillingCustomerID records the billing provider's customer id.
func (s *MongoStore) SetBillingCustomerID(ctx context.Context, id, customerID string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"billing_customer_id": customerID,
		"updated_at":          time.Now(),
	}})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the user document.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

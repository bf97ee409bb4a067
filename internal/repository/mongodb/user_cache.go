package mongodb

import (
	"context"
	"errors"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// user field name -> document field name
var userFields = map[string]string{
	"username":    "username",
	"profile_pic": "profilePic",
}

type userDocument struct {
	ID         string `bson:"_id"`
	Username   string `bson:"username"`
	ProfilePic string `bson:"profilePic"`
}

type userCacheRepo struct {
	collection *mongo.Collection
}

func newUserCacheRepo(collection *mongo.Collection) store.UserCache {
	return &userCacheRepo{
		collection: collection,
	}
}

func (r *userCacheRepo) Create(ctx context.Context, cachedUser model.CachedUser) error {
	doc := userDocument{
		ID:         idString(cachedUser.ID),
		Username:   cachedUser.Username,
		ProfilePic: cachedUser.ProfilePic,
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *userCacheRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	if err := store.CheckUserUpdates(updates); err != nil {
		return err
	}

	set := bson.M{}
	for field, value := range updates {
		set[userFields[field]] = value
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": idString(id)}, bson.M{"$set": set})
	return err
}

func (r *userCacheRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": idString(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return &model.CachedUser{
		ID:         id,
		Username:   doc.Username,
		ProfilePic: doc.ProfilePic,
	}, nil
}

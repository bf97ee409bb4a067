package mongodb

import (
	"context"
	"errors"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type postDocument struct {
	ID       string `bson:"_id"`
	AuthorID string `bson:"authorId"`
	Title    string `bson:"title"`
	Comments int64  `bson:"comments"`
}

func (d postDocument) toModel() (*model.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, err
	}

	return &model.Post{
		ID:       id,
		AuthorID: authorID,
		Title:    d.Title,
		Comments: d.Comments,
	}, nil
}

type postRepo struct {
	collection *mongo.Collection
}

func newPostRepo(collection *mongo.Collection) store.Post {
	return &postRepo{
		collection: collection,
	}
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var doc postDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": idString(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return doc.toModel()
}

func (r *postRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Post, error) {
	posts := make(map[uuid.UUID]*model.Post, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		post, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		posts[post.ID] = post
	}

	return posts, nil
}

func (r *postRepo) IncrComments(ctx context.Context, id uuid.UUID, delta int64) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": idString(id)}, bson.M{"$inc": bson.M{"comments": delta}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (r *postRepo) SetComments(ctx context.Context, id uuid.UUID, comments int64) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": idString(id)}, bson.M{"$set": bson.M{"comments": comments}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

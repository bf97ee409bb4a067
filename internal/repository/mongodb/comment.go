package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type commentDocument struct {
	ID            string    `bson:"_id"`
	PostID        string    `bson:"postId"`
	ParentID      *string   `bson:"parentId"`
	AuthorID      string    `bson:"authorId"`
	Text          string    `bson:"text"`
	Children      []string  `bson:"children"`
	LikeVoters    []string  `bson:"likeVoters"`
	DislikeVoters []string  `bson:"dislikeVoters"`
	Likes         int64     `bson:"likes"`
	Dislikes      int64     `bson:"dislikes"`
	CreatedAt     time.Time `bson:"createdAt"`
}

var voterFields = map[model.Polarity]struct {
	voters string
	count  string
}{
	model.PolarityLike:    {voters: "likeVoters", count: "likes"},
	model.PolarityDislike: {voters: "dislikeVoters", count: "dislikes"},
}

func toDocument(c model.Comment) commentDocument {
	doc := commentDocument{
		ID:            idString(c.ID),
		PostID:        idString(c.PostID),
		AuthorID:      idString(c.AuthorID),
		Text:          c.Text,
		Children:      idStrings(c.Children),
		LikeVoters:    idStrings(c.LikeVoters),
		DislikeVoters: idStrings(c.DislikeVoters),
		Likes:         c.Likes,
		Dislikes:      c.Dislikes,
		CreatedAt:     c.CreatedAt,
	}
	if c.ParentID != nil {
		parentID := idString(*c.ParentID)
		doc.ParentID = &parentID
	}
	return doc
}

func (d commentDocument) toModel() (*model.Comment, error) {
	var (
		c   model.Comment
		err error
	)
	if c.ID, err = uuid.Parse(d.ID); err != nil {
		return nil, err
	}
	if c.PostID, err = uuid.Parse(d.PostID); err != nil {
		return nil, err
	}
	if c.AuthorID, err = uuid.Parse(d.AuthorID); err != nil {
		return nil, err
	}
	if d.ParentID != nil {
		parentID, err := uuid.Parse(*d.ParentID)
		if err != nil {
			return nil, err
		}
		c.ParentID = &parentID
	}
	if c.Children, err = parseIDs(d.Children); err != nil {
		return nil, err
	}
	if c.LikeVoters, err = parseIDs(d.LikeVoters); err != nil {
		return nil, err
	}
	if c.DislikeVoters, err = parseIDs(d.DislikeVoters); err != nil {
		return nil, err
	}
	c.Text = d.Text
	c.Likes = d.Likes
	c.Dislikes = d.Dislikes
	c.CreatedAt = d.CreatedAt
	return &c, nil
}

type commentRepo struct {
	collection *mongo.Collection
}

func newCommentRepo(collection *mongo.Collection) store.Comment {
	return &commentRepo{
		collection: collection,
	}
}

func (r *commentRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Comment, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]*model.Comment, 0, len(docs))
	for _, doc := range docs {
		comment, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	comment.ID = uuid.New()
	// BSON dates carry millisecond precision.
	comment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	comment.Children = []uuid.UUID{}
	comment.LikeVoters = []uuid.UUID{}
	comment.DislikeVoters = []uuid.UUID{}
	comment.Likes = 0
	comment.Dislikes = 0

	if _, err := r.collection.InsertOne(ctx, toDocument(comment)); err != nil {
		return nil, err
	}

	if comment.ParentID != nil {
		result, err := r.collection.UpdateOne(
			ctx,
			bson.M{"_id": idString(*comment.ParentID)},
			bson.M{"$push": bson.M{"children": idString(comment.ID)}},
		)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			// parent vanished between lookup and insert
			if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": idString(comment.ID)}); err != nil {
				return nil, err
			}
			return nil, store.ErrNotFound
		}
	}

	return &comment, nil
}

func (r *commentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	var doc commentDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": idString(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return doc.toModel()
}

func (r *commentRepo) FindPostComments(ctx context.Context, postID uuid.UUID) ([]*model.Comment, error) {
	return r.find(
		ctx,
		bson.M{"postId": idString(postID)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (r *commentRepo) FindReplies(ctx context.Context, parentID uuid.UUID) ([]*model.Comment, error) {
	return r.find(
		ctx,
		bson.M{"parentId": idString(parentID)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (r *commentRepo) FindAuthorComments(ctx context.Context, authorID uuid.UUID, limit int) ([]*model.Comment, error) {
	return r.find(
		ctx,
		bson.M{"authorId": idString(authorID)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit)),
	)
}

func (r *commentRepo) AddVoter(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	fields, ok := voterFields[polarity]
	if !ok {
		return nil, errors.New("unknown vote polarity")
	}

	id := idString(commentID)
	voter := idString(userID)

	// Single-document update: the filter only matches while the user is
	// absent from both voter sets.
	filter := bson.M{
		"_id":           id,
		"likeVoters":    bson.M{"$ne": voter},
		"dislikeVoters": bson.M{"$ne": voter},
	}
	update := bson.M{
		"$push": bson.M{fields.voters: voter},
		"$inc":  bson.M{fields.count: 1},
	}

	var doc commentDocument
	err := r.collection.FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return &model.VoteCounts{Likes: doc.Likes, Dislikes: doc.Dislikes}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, store.ErrNotFound
	}

	return nil, store.ErrAlreadyVoted
}

func (r *commentRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	idList := idStrings(ids)

	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": idList}})
	if err != nil {
		return 0, err
	}

	// Detach the deleted ids from any surviving parent.
	if _, err := r.collection.UpdateMany(
		ctx,
		bson.M{"children": bson.M{"$in": idList}},
		bson.M{"$pull": bson.M{"children": bson.M{"$in": idList}}},
	); err != nil {
		return result.DeletedCount, err
	}

	return result.DeletedCount, nil
}

func (r *commentRepo) CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"postId": idString(postID)})
}

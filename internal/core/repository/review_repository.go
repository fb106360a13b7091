package repository

import (
	"context"
	"time"

	"sainmakosam/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListOptions controls FindAll. A zero Limit means no cap.
type ListOptions struct {
	Limit  int64
	Newest bool
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindBySlug(ctx context.Context, slug string) (*model.Review, error)
	FindAll(ctx context.Context, opts ListOptions) ([]*model.Review, error)
}

type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{
		collection: db.Collection("reviews"),
	}
}

// EnsureIndexes creates the unique slug index.
func (r *MongoReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "datePosted", Value: -1}}},
	})
	return err
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, review)
	return mapWriteError(err)
}

func (r *MongoReviewRepository) Update(ctx context.Context, review *model.Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoReviewRepository) FindBySlug(ctx context.Context, slug string) (*model.Review, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoReviewRepository) FindAll(ctx context.Context, opts ListOptions) ([]*model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	findOpts := options.Find()
	if opts.Newest {
		findOpts.SetSort(bson.D{{Key: "datePosted", Value: -1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []*model.Review{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *MongoReviewRepository) findOne(ctx context.Context, filter bson.M) (*model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var review model.Review
	err := r.collection.FindOne(ctx, filter).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func mapWriteError(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEntry
	}
	return err
}

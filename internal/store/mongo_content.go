package store

import (
	"context"
	"time"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository[T any, PT domain.Entity[T]] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func newMongoRepository[T any, PT domain.Entity[T]](db *mongo.Database, name string) *mongoRepository[T, PT] {
	return &mongoRepository[T, PT]{coll: db.Collection(name), now: mongoNow}
}

func (r *mongoRepository[T, PT]) Create(ctx context.Context, item PT) error {
	item.Init(r.now())
	_, err := r.coll.InsertOne(ctx, item)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrapf(err, "failed to create in %s", r.coll.Name())
	}
	return nil
}

func (r *mongoRepository[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	var item T
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load from %s", r.coll.Name())
	}
	return PT(&item), nil
}

func (r *mongoRepository[T, PT]) List(ctx context.Context) ([]T, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", r.coll.Name())
	}
	items := []T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", r.coll.Name())
	}
	return items, nil
}

func (r *mongoRepository[T, PT]) Replace(ctx context.Context, item PT) error {
	item.Touch(r.now())
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": item.Key()}, item)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrapf(err, "failed to update in %s", r.coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "failed to delete from %s", r.coll.Name())
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository[T, PT]) ExistsBy(ctx context.Context, field, value, excludeID string) (bool, error) {
	filter := bson.M{field: value}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "failed to check %s", r.coll.Name())
	}
	return n > 0, nil
}

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

type mongoInquiries struct {
	coll *mongo.Collection
	now  func() time.Time
}

func newMongoInquiries(db *mongo.Database) *mongoInquiries {
	return &mongoInquiries{coll: db.Collection("inquiries"), now: mongoNow}
}

// mongoNow truncates to the millisecond precision BSON dates carry.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *mongoInquiries) Create(ctx context.Context, inq *domain.Inquiry) error {
	inq.Init(s.now())
	if _, err := s.coll.InsertOne(ctx, inq); err != nil {
		return errors.Wrap(err, "failed to create inquiry")
	}
	return nil
}

func (s *mongoInquiries) List(ctx context.Context) ([]domain.Inquiry, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list inquiries")
	}
	items := []domain.Inquiry{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode inquiries")
	}
	for i := range items {
		if items[i].Notes == nil {
			items[i].Notes = []domain.Note{}
		}
	}
	return items, nil
}

func (s *mongoInquiries) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&inq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load inquiry")
	}
	if inq.Notes == nil {
		inq.Notes = []domain.Note{}
	}
	return &inq, nil
}

func (s *mongoInquiries) SetStatus(ctx context.Context, id string, status domain.InquiryStatus) (*domain.Inquiry, error) {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": s.now()},
	})
}

func (s *mongoInquiries) MarkViewed(ctx context.Context, id string) (*domain.Inquiry, bool, error) {
	inq, err := s.update(ctx, bson.M{"_id": id, "status": domain.StatusUnread}, bson.M{
		"$set": bson.M{"status": domain.StatusRead, "updatedAt": s.now()},
	})
	if err == nil {
		return inq, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	inq, err = s.Get(ctx, id)
	return inq, false, err
}

func (s *mongoInquiries) AppendNote(ctx context.Context, id, content string) (*domain.Inquiry, error) {
	now := s.now()
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"notes": domain.Note{Content: content, CreatedAt: now}},
		"$set":  bson.M{"updatedAt": now},
	})
}

func (s *mongoInquiries) MarkForwarded(ctx context.Context, id string) (*domain.Inquiry, error) {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isForwarded": true, "updatedAt": s.now()},
	})
}

func (s *mongoInquiries) update(ctx context.Context, filter, update bson.M) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&inq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update inquiry")
	}
	if inq.Notes == nil {
		inq.Notes = []domain.Note{}
	}
	return &inq, nil
}

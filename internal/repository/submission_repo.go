package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadfunnel/internal/model"
)

// SubmissionRepo handles MongoDB operations for completed survey submissions
type SubmissionRepo interface {
	Create(ctx context.Context, sub *model.Submission) (string, error)
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	List(ctx context.Context, limit, offset int64) ([]*model.Submission, error)
	Count(ctx context.Context) (int64, error)
}

type submissionRepo struct {
	collection *mongo.Collection
}

// NewSubmissionRepo creates a new submission repository
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	return &submissionRepo{
		collection: db.Collection("submissions"),
	}
}

// Create stores sub once per session. Re-submitting the same session returns the
// id of the stored document instead of inserting a duplicate.
func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) (string, error) {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	filter := bson.M{"sessionId": sub.SessionID}
	update := bson.M{"$setOnInsert": bson.M{
		"sessionId":   sub.SessionID,
		"answers":     sub.Answers,
		"contact":     sub.Contact,
		"submittedAt": sub.SubmittedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return "", err
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		sub.ID = oid.Hex()
		return sub.ID, nil
	}

	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
		return "", err
	}
	sub.ID = existing.ID.Hex()
	return sub.ID, nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil // not an id we could have issued
	}

	var sub model.Submission
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.ID = id
	return &sub, nil
}

// List returns submissions newest first
func (r *submissionRepo) List(ctx context.Context, limit, offset int64) ([]*model.Submission, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	submissions := []*model.Submission{}
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

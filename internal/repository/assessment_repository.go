package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
)

// AssessmentRepository keeps the audit trail of elevated risk assessments
// for manual-review queues.
type AssessmentRepository struct {
	collection *mongo.Collection
}

func NewAssessmentRepository(client *mongo.Client, database string) *AssessmentRepository {
	return &AssessmentRepository{
		collection: client.Database(database).Collection("risk_assessments"),
	}
}

func (r *AssessmentRepository) Save(ctx context.Context, record *models.AssessmentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// ListPendingReview returns the most recent elevated assessments, newest
// first.
func (r *AssessmentRepository) ListPendingReview(ctx context.Context, limit int64) ([]models.AssessmentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	filter := bson.M{"risk_level": bson.M{"$in": []string{"medium", "high", "critical"}}}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AssessmentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
